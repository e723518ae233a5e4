package netdata

import "github.com/hwipl/thread-core/internal/corerr"

// ContextIDReuseDelay is the default delay, in seconds, a released
// context id is held back before it can be reassigned (spec.md §4.7,
// kContextIdReuseDelay).
const ContextIDReuseDelay = 48 * 60 * 60

// contextSlot tracks one of the 16 compression-context ids.
type contextSlot struct {
	inUse      bool
	pending    bool // released, waiting out the reuse delay
	releasedAt int64
}

// ContextAllocator hands out 6LoWPAN compression context ids 1..15 and
// holds released ids back for ContextIDReuseDelay seconds before they
// can be reused (spec.md §4.7).
type ContextAllocator struct {
	slots [MaxContextID + 1]contextSlot
	now   int64
}

// NewContextAllocator returns an allocator with every id free.
func NewContextAllocator() *ContextAllocator {
	return &ContextAllocator{}
}

// Allocate reserves the lowest-numbered free id, or corerr.NoBufs if
// every id is in use or held by the reuse delay.
func (a *ContextAllocator) Allocate() (uint8, corerr.Kind) {
	for id := uint8(1); id <= MaxContextID; id++ {
		s := &a.slots[id]
		if !s.inUse && !s.pending {
			s.inUse = true
			return id, corerr.None
		}
	}
	return 0, corerr.NoBufs
}

// Release marks id as no longer referenced by any prefix; it becomes
// reusable after ContextIDReuseDelay seconds of Tick advancement.
func (a *ContextAllocator) Release(id uint8) {
	if id == 0 || id > MaxContextID {
		return
	}
	s := &a.slots[id]
	s.inUse = false
	s.pending = true
	s.releasedAt = a.now
}

// Tick advances the allocator's clock by one second and frees any
// context whose reuse delay has elapsed, returning the ids that just
// returned to the free pool.
func (a *ContextAllocator) Tick() []uint8 {
	a.now++
	var freed []uint8
	for id := 1; id <= MaxContextID; id++ {
		s := &a.slots[id]
		if s.pending && a.now-s.releasedAt >= ContextIDReuseDelay {
			s.pending = false
			freed = append(freed, uint8(id))
		}
	}
	return freed
}

// InUse reports whether id is currently assigned to a prefix.
func (a *ContextAllocator) InUse(id uint8) bool {
	if id == 0 || id > MaxContextID {
		return false
	}
	return a.slots[id].inUse
}
