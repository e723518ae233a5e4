// Package logging provides the shared logrus logger used by every core
// component, with a "component" field set per package instead of
// formatted message prefixes.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// SetLevel sets the logging level for all components.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// For returns a logger entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
