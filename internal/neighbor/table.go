// Package neighbor holds the Neighbor/Child/Router table: per-peer
// link state consumed by the MAC, Forwarder, and Resolver components
// (spec.md §3, "Neighbor / Child / Router table entries").
package neighbor

import "github.com/hwipl/thread-core/internal/corerr"

// State is a neighbor's position in the parent/child attach handshake.
type State uint8

const (
	StateInvalid State = iota
	StateParentRequest
	StateChildIDRequest
	StateValid
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "Invalid"
	case StateParentRequest:
		return "Parent-Request"
	case StateChildIDRequest:
		return "Child-Id-Request"
	case StateValid:
		return "Valid"
	default:
		return "Unknown"
	}
}

// Mode bits (spec.md §3).
const (
	ModeRxOnWhenIdle     = 1 << 0
	ModeSecureDataRequest = 1 << 1
	ModeFFD              = 1 << 2
	ModeFullNetworkData  = 1 << 3
)

// Entry is one neighbor/child/router record. Its LinkFrameCounter/
// PreviousKey methods implement internal/mac's NeighborSecurity
// interface so mac.Unsecure can drive replay protection directly off
// the table.
type Entry struct {
	State            State
	ShortAddr        uint16
	ExtAddr          [8]byte
	Mode             uint8
	LastHeard        int64 // unix seconds, for LastTransactionTime
	linkFrameCounter uint32
	previousKey      bool
}

// LinkFrameCounter implements mac.NeighborSecurity.
func (e *Entry) LinkFrameCounter() uint32 { return e.linkFrameCounter }

// SetLinkFrameCounter implements mac.NeighborSecurity.
func (e *Entry) SetLinkFrameCounter(v uint32) { e.linkFrameCounter = v }

// PreviousKeyValid implements mac.NeighborSecurity.
func (e *Entry) PreviousKeyValid() bool { return e.previousKey }

// ClearPreviousKey implements mac.NeighborSecurity.
func (e *Entry) ClearPreviousKey() { e.previousKey = false }

// SetPreviousKeyValid marks that this neighbor may still be using the
// previous key sequence (set when our own key sequence advances).
func (e *Entry) SetPreviousKeyValid() { e.previousKey = true }

// IsFFD reports whether the neighbor's mode bitmask claims full
// routing function.
func (e *Entry) IsFFD() bool { return e.Mode&ModeFFD != 0 }

// RxOnWhenIdle reports whether the neighbor is reachable by direct TX
// (true) or must be reached via indirect/poll-driven TX (false,
// "sleepy child").
func (e *Entry) RxOnWhenIdle() bool { return e.Mode&ModeRxOnWhenIdle != 0 }

// Table is a fixed-capacity set of neighbor/child/router entries.
type Table struct {
	entries []*Entry
}

// NewTable allocates a table with room for capacity entries.
func NewTable(capacity int) *Table {
	return &Table{entries: make([]*Entry, 0, capacity)}
}

// Add inserts a new entry for shortAddr/extAddr, failing with NoBufs
// if the table is at capacity.
func (t *Table) Add(shortAddr uint16, extAddr [8]byte) (*Entry, corerr.Kind) {
	if len(t.entries) == cap(t.entries) {
		return nil, corerr.NoBufs
	}
	e := &Entry{State: StateParentRequest, ShortAddr: shortAddr, ExtAddr: extAddr}
	t.entries = append(t.entries, e)
	return e, corerr.None
}

// Remove deletes the entry for extAddr, if present.
func (t *Table) Remove(extAddr [8]byte) corerr.Kind {
	for i, e := range t.entries {
		if e.ExtAddr == extAddr {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return corerr.None
		}
	}
	return corerr.NotFound
}

// FindShort looks up a Valid-or-not entry by short address.
func (t *Table) FindShort(shortAddr uint16) (*Entry, bool) {
	for _, e := range t.entries {
		if e.ShortAddr == shortAddr {
			return e, true
		}
	}
	return nil, false
}

// FindExt looks up an entry by extended address.
func (t *Table) FindExt(extAddr [8]byte) (*Entry, bool) {
	for _, e := range t.entries {
		if e.ExtAddr == extAddr {
			return e, true
		}
	}
	return nil, false
}

// All returns every entry currently in the table, in insertion order.
func (t *Table) All() []*Entry {
	return t.entries
}

// Valid returns only the entries in the Valid state.
func (t *Table) Valid() []*Entry {
	var out []*Entry
	for _, e := range t.entries {
		if e.State == StateValid {
			out = append(out, e)
		}
	}
	return out
}
