package forwarder

import (
	"time"

	"github.com/hwipl/thread-core/internal/buffer"
	"github.com/hwipl/thread-core/internal/corerr"
)

// PollTimer drives sleepy-child data-request polling: while active, it
// emits a zero-length MacDataPoll frame every period (spec.md §4.5).
type PollTimer struct {
	period time.Duration
	active bool
}

// NewPollTimer returns an inactive timer at the given poll period.
func NewPollTimer(period time.Duration) *PollTimer {
	return &PollTimer{period: period}
}

// SetRxOnWhenIdle mirrors the neighbor mode bit: true stops polling
// (the radio stays on), false starts it.
func (p *PollTimer) SetRxOnWhenIdle(on bool) {
	p.active = !on
}

// Active reports whether polling is currently running.
func (p *PollTimer) Active() bool { return p.active }

// Period returns the configured poll period.
func (p *PollTimer) Period() time.Duration { return p.period }

// Fire builds the zero-length MacDataPoll message this tick should
// enqueue, or corerr.InvalidState if polling is not active.
func (p *PollTimer) Fire(pool *buffer.Pool) (*buffer.Message, corerr.Kind) {
	if !p.active {
		return nil, corerr.InvalidState
	}
	return pool.New(buffer.TypeMacDataPoll, 0)
}
