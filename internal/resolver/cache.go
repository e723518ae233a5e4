// Package resolver implements the Address Resolver: a bounded
// EID-to-RLOC cache driven by CoAP address-query/notification/error
// exchanges and ICMPv6 destination-unreachable notifications
// (spec.md §4.6).
package resolver

import "github.com/hwipl/thread-core/internal/corerr"

// CacheEntries is the fixed cache capacity (spec.md §3).
const CacheEntries = 16

// DiscoverTimeout is the number of 1-second timer ticks a Query/Retry
// entry survives before becoming Invalid (spec.md §4.6, kDiscoverTimeout = 3s).
const DiscoverTimeout = 3

// State is an address-resolver cache entry's lifecycle state.
type State uint8

const (
	StateInvalid State = iota
	StateQuery
	StateRetry
	StateValid
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "Invalid"
	case StateQuery:
		return "Query"
	case StateRetry:
		return "Retry"
	case StateValid:
		return "Valid"
	default:
		return "Unknown"
	}
}

// entry is one cache slot (spec.md §3).
type entry struct {
	target              [16]byte
	rloc16              uint16
	iid                 [8]byte
	lastTransactionTime int64
	timeout             int
	failureCount        int
	state               State
}

// Cache is the fixed-capacity EID-to-RLOC cache.
type Cache struct {
	entries [CacheEntries]entry
}

// NewCache returns an all-Invalid cache.
func NewCache() *Cache {
	return &Cache{}
}

// find returns the entry for target, if any is non-Invalid and matches.
func (c *Cache) find(target [16]byte) (*entry, bool) {
	for i := range c.entries {
		if c.entries[i].state != StateInvalid && c.entries[i].target == target {
			return &c.entries[i], true
		}
	}
	return nil, false
}

// allocate returns a free (Invalid) slot, or nil if the cache is full
// (spec.md §9 Open Question: cache exhaustion under all-Query falls
// through to NoBufs, matching the original's entry-not-found path).
func (c *Cache) allocate() *entry {
	for i := range c.entries {
		if c.entries[i].state == StateInvalid {
			return &c.entries[i]
		}
	}
	return nil
}

// Resolve implements spec.md §4.6's cache lookup: a Valid match returns
// the cached rloc with None; a miss allocates a Query entry and
// returns LeaseQuery so the caller parks the message; cache exhaustion
// returns NoBufs. isNewQuery reports whether this call just allocated
// the Query entry (only then should the caller emit an address query —
// a Resolve against an already-pending entry must not re-query).
func (c *Cache) Resolve(target [16]byte) (rloc16 uint16, kind corerr.Kind, isNewQuery bool) {
	if e, ok := c.find(target); ok {
		switch e.state {
		case StateValid:
			return e.rloc16, corerr.None, false
		case StateQuery, StateRetry:
			return 0, corerr.LeaseQuery, false
		}
	}

	e := c.allocate()
	if e == nil {
		return 0, corerr.NoBufs, false
	}
	*e = entry{target: target, state: StateQuery, timeout: DiscoverTimeout}
	return 0, corerr.LeaseQuery, true
}

// HandleNotification implements spec.md §4.6's notification handling:
// adopt the advertised mapping if the entry was not yet Valid or the
// IID matches, otherwise report a conflict. adopted and conflict are
// mutually exclusive; neither is set if target has no cache entry.
func (c *Cache) HandleNotification(target [16]byte, iid [8]byte, rloc16 uint16, lastTransactionTime int64) (adopted, conflict bool) {
	e, ok := c.find(target)
	if !ok {
		return false, false
	}
	if e.state != StateValid || e.iid == iid {
		e.iid = iid
		e.rloc16 = rloc16
		e.timeout = 0
		e.failureCount = 0
		e.state = StateValid
		e.lastTransactionTime = lastTransactionTime
		return true, false
	}
	return false, true
}

// HandleError implements spec.md §4.6's address-error handling against
// the cache: if target matches an entry whose stored IID differs from
// errIID, the entry is invalidated (the caller is responsible for the
// corresponding unicast-address/child-table walk).
func (c *Cache) HandleError(target [16]byte, errIID [8]byte) (invalidated bool) {
	e, ok := c.find(target)
	if !ok {
		return false
	}
	if e.iid != errIID {
		e.state = StateInvalid
		return true
	}
	return false
}

// InvalidateOnUnreachable implements the ICMPv6 destination-unreachable
// handling of spec.md §4.6: a cached entry for the unreachable
// datagram's destination is invalidated outright.
func (c *Cache) InvalidateOnUnreachable(target [16]byte) {
	if e, ok := c.find(target); ok {
		e.state = StateInvalid
	}
}

// Tick runs the cache's 1-second timer: decrements timeout on Query/Retry
// entries, invalidating any that reach zero. It reports whether any
// entry remains in Query/Retry (the caller should rearm the timer).
func (c *Cache) Tick() (rearm bool) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.state != StateQuery && e.state != StateRetry {
			continue
		}
		e.timeout--
		if e.timeout <= 0 {
			e.state = StateInvalid
			continue
		}
		rearm = true
	}
	return rearm
}

// Remove invalidates every entry whose rloc16 belongs to routerID
// (top 6 bits of rloc16), mirroring a router-departure cleanup.
func (c *Cache) Remove(routerID uint8) {
	for i := range c.entries {
		if uint8(c.entries[i].rloc16>>10) == routerID {
			c.entries[i].state = StateInvalid
		}
	}
}

// Clear invalidates every entry.
func (c *Cache) Clear() {
	for i := range c.entries {
		c.entries[i].state = StateInvalid
	}
}

// Lookup returns a read-only snapshot of the entry for target, for
// tests and diagnostics.
func (c *Cache) Lookup(target [16]byte) (state State, rloc16 uint16, ok bool) {
	e, ok := c.find(target)
	if !ok {
		return StateInvalid, 0, false
	}
	return e.state, e.rloc16, true
}

// EntrySnapshot is a read-only view of one non-Invalid cache slot, for
// the diagnostics server.
type EntrySnapshot struct {
	Target [16]byte
	Rloc16 uint16
	State  State
}

// Snapshot returns every non-Invalid entry in the cache.
func (c *Cache) Snapshot() []EntrySnapshot {
	var out []EntrySnapshot
	for i := range c.entries {
		e := &c.entries[i]
		if e.state == StateInvalid {
			continue
		}
		out = append(out, EntrySnapshot{Target: e.target, Rloc16: e.rloc16, State: e.state})
	}
	return out
}
