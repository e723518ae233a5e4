// Package corerr defines the flat error-kind enum shared across the core.
package corerr

// Kind is an error outcome returned by core operations. The zero value,
// None, is not a failure.
type Kind uint8

const (
	None Kind = iota
	NoBufs
	Busy
	Parse
	Drop
	Security
	NoRoute
	LeaseQuery
	InvalidState
	InvalidArgs
	Already
	NotFound
)

var names = [...]string{
	"None", "NoBufs", "Busy", "Parse", "Drop", "Security", "NoRoute",
	"LeaseQuery", "InvalidState", "InvalidArgs", "Already", "NotFound",
}

// String converts the kind to a string.
func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Error implements the error interface so a Kind can be returned/compared
// as a normal Go error while still being a flat comparable enum.
func (k Kind) Error() string {
	return k.String()
}

// Fail reports whether k represents a failure (anything but None).
func (k Kind) Fail() bool {
	return k != None
}
