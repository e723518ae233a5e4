package netdata

import (
	"testing"

	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/mleiface"
)

type fakeMLE struct {
	costs map[uint16]uint8
}

func (f *fakeMLE) ThreadState() mleiface.ThreadState             { return mleiface.StateDetached }
func (f *fakeMLE) IsRoutingLocator(addr [16]byte) (uint16, bool) { return 0, false }
func (f *fakeMLE) GetNextHop(dest uint16) uint16                 { return dest }
func (f *fakeMLE) GetRouteCost(dest uint16) uint8 {
	if c, ok := f.costs[dest]; ok {
		return c
	}
	return 255
}
func (f *fakeMLE) SendLinkReject(uint16) {}

func newTestLeader(costs map[uint16]uint8) *Leader {
	return New(&fakeMLE{costs: costs}, 1, coap.NewServer())
}

// TestRegisterServerDataAllocatesContextAndBumpsVersion reproduces
// spec.md §8's leader registration scenario: a registrant's on-mesh
// prefix needing 6LoWPAN compression receives a fresh context id, and
// the store's version counters advance.
func TestRegisterServerDataAllocatesContextAndBumpsVersion(t *testing.T) {
	l := newTestLeader(nil)
	before := l.Store.Version

	entries := []PrefixEntry{{
		Prefix:       [16]byte{0x20, 0x01},
		PrefixLen:    16,
		Stable:       true,
		BorderRouter: []BorderRouterEntry{{Valid: true, Stable: true}},
		Context:      &ContextSubTLV{ContextLength: 64, Compress: true, Stable: true},
	}}

	accepted, kind := l.RegisterServerData(0x1000, entries)
	if kind.Fail() {
		t.Fatalf("RegisterServerData: %s", kind)
	}
	if accepted[0].Context == nil || accepted[0].Context.ContextID == 0 {
		t.Fatalf("expected a nonzero context id, got %+v", accepted[0].Context)
	}
	if l.Store.Version == before {
		t.Fatal("Version did not advance after registration")
	}
	if l.Store.StableVersion == 0 {
		t.Fatal("StableVersion did not advance for a stable registration")
	}
}

// TestRegisterServerDataReplacesPriorRegistration reproduces
// re-registration: a second call from the same rloc16 replaces its
// earlier TLVs rather than accumulating duplicates.
func TestRegisterServerDataReplacesPriorRegistration(t *testing.T) {
	l := newTestLeader(nil)
	first := []PrefixEntry{{Prefix: [16]byte{0x20, 0x01}, PrefixLen: 16,
		HasRoute: []HasRouteEntry{{Rloc16: 0x1000, Preference: 1}}}}
	l.RegisterServerData(0x1000, first)

	second := []PrefixEntry{{Prefix: [16]byte{0x20, 0x02}, PrefixLen: 16,
		HasRoute: []HasRouteEntry{{Rloc16: 0x1000, Preference: 1}}}}
	l.RegisterServerData(0x1000, second)

	if len(l.Store.Prefixes) != 1 {
		t.Fatalf("expected the first registration's prefix to be replaced, got %d prefixes", len(l.Store.Prefixes))
	}
	if l.Store.Prefixes[0].Prefix != ([16]byte{0x20, 0x02}) {
		t.Fatalf("surviving prefix = %x, want the second registration's prefix", l.Store.Prefixes[0].Prefix)
	}
}

// TestRouteLookupPrefersHigherPreferenceThenLowerCost reproduces
// spec.md §4.7's route-lookup tie-break.
func TestRouteLookupPrefersHigherPreferenceThenLowerCost(t *testing.T) {
	l := newTestLeader(map[uint16]uint8{0x1000: 5, 0x2000: 1})
	l.Store.Prefixes = []PrefixEntry{{
		Prefix:    [16]byte{0x20, 0x01},
		PrefixLen: 16,
		HasRoute: []HasRouteEntry{
			{Rloc16: 0x1000, Preference: 1},
			{Rloc16: 0x2000, Preference: 1},
		},
	}}

	dst := [16]byte{0x20, 0x01, 1}
	rloc16, matchLen, kind := l.RouteLookup([16]byte{}, dst)
	if kind.Fail() {
		t.Fatalf("RouteLookup: %s", kind)
	}
	if rloc16 != 0x2000 {
		t.Fatalf("RouteLookup chose rloc %#x, want the lower-cost 0x2000", rloc16)
	}
	if matchLen != 16 {
		t.Fatalf("matchLen = %d, want 16", matchLen)
	}
}

// TestRegisterServerDataReleasesContextOnLastBorderRouterWithdrawal
// reproduces spec.md §8 scenario 6 end-to-end: re-registering without the
// border-router entry releases the context id, and it only returns to
// the free pool (with Version/StableVersion advancing again) once the
// reuse delay has fully elapsed.
func TestRegisterServerDataReleasesContextOnLastBorderRouterWithdrawal(t *testing.T) {
	l := newTestLeader(nil)

	entries := []PrefixEntry{{
		Prefix:       [16]byte{0x20, 0x01},
		PrefixLen:    16,
		BorderRouter: []BorderRouterEntry{{Rloc16: 0x1000, Valid: true}},
		Context:      &ContextSubTLV{ContextLength: 64, Compress: true},
	}}
	accepted, kind := l.RegisterServerData(0x1000, entries)
	if kind.Fail() {
		t.Fatalf("RegisterServerData: %s", kind)
	}
	id := accepted[0].Context.ContextID
	if !l.contexts.InUse(id) {
		t.Fatal("context id not marked in use after registration")
	}

	withdrawn := []PrefixEntry{{Prefix: [16]byte{0x20, 0x01}, PrefixLen: 16}}
	if _, kind := l.RegisterServerData(0x1000, withdrawn); kind.Fail() {
		t.Fatalf("RegisterServerData withdrawal: %s", kind)
	}
	if l.contexts.InUse(id) {
		t.Fatal("context id still in use after its last border router was withdrawn")
	}

	for i := 0; i < ContextIDReuseDelay; i++ {
		l.Tick()
	}
	if newID, kind := l.contexts.Allocate(); kind.Fail() || newID != id {
		t.Fatalf("context id did not return to the free pool after the reuse delay: id=%d kind=%s", newID, kind)
	}
}

func TestRouteLookupNoRouteWhenNoPrefixMatches(t *testing.T) {
	l := newTestLeader(nil)
	if _, _, kind := l.RouteLookup([16]byte{}, [16]byte{0xfe, 0x80}); kind != corerr.NoRoute {
		t.Fatalf("RouteLookup on an empty store = %s, want NoRoute", kind)
	}
}
