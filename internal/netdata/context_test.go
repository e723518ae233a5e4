package netdata

import (
	"testing"

	"github.com/hwipl/thread-core/internal/corerr"
)

func TestContextAllocatorExhaustionReturnsNoBufs(t *testing.T) {
	a := NewContextAllocator()
	for i := 0; i < MaxContextID; i++ {
		if _, kind := a.Allocate(); kind.Fail() {
			t.Fatalf("Allocate(%d) failed: %s", i, kind)
		}
	}
	if _, kind := a.Allocate(); kind != corerr.NoBufs {
		t.Fatalf("Allocate on exhausted pool = %s, want NoBufs", kind)
	}
}

// TestReleaseHoldsIDUntilReuseDelayElapses reproduces spec.md §8's
// context reuse scenario: a released id stays unavailable until
// ContextIDReuseDelay seconds of Tick have passed.
func TestReleaseHoldsIDUntilReuseDelayElapses(t *testing.T) {
	a := NewContextAllocator()
	for i := 0; i < MaxContextID; i++ {
		a.Allocate()
	}
	a.Release(1)

	for i := 0; i < ContextIDReuseDelay-1; i++ {
		a.Tick()
	}
	if _, kind := a.Allocate(); kind != corerr.NoBufs {
		t.Fatalf("Allocate before reuse delay elapsed = %s, want NoBufs", kind)
	}

	a.Tick()
	id, kind := a.Allocate()
	if kind.Fail() || id != 1 {
		t.Fatalf("Allocate after reuse delay = (id=%d kind=%s), want (1, None)", id, kind)
	}
}

func TestInUseReflectsAllocationState(t *testing.T) {
	a := NewContextAllocator()
	id, _ := a.Allocate()
	if !a.InUse(id) {
		t.Fatal("InUse false right after Allocate")
	}
	a.Release(id)
	if a.InUse(id) {
		t.Fatal("InUse true right after Release")
	}
}
