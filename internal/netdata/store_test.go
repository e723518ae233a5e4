package netdata

import "testing"

func TestLongestMatchPrefersMoreSpecificPrefix(t *testing.T) {
	s := NewStore()
	wide := [16]byte{0x20, 0x01}
	narrow := [16]byte{0x20, 0x01, 0x0d, 0xb8}
	s.Prefixes = []PrefixEntry{
		{Prefix: wide, PrefixLen: 16, BorderRouter: []BorderRouterEntry{{Rloc16: 0x1000, Valid: true}}},
		{Prefix: narrow, PrefixLen: 32, BorderRouter: []BorderRouterEntry{{Rloc16: 0x2000, Valid: true}}},
	}

	addr := [16]byte{0x20, 0x01, 0x0d, 0xb8, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 1}
	p, ok := s.LongestMatch(addr)
	if !ok || p.PrefixLen != 32 {
		t.Fatalf("LongestMatch = (ok=%v len=%d), want the /32 entry", ok, p.PrefixLen)
	}
}

func TestIsOnMeshRequiresValidBorderRouter(t *testing.T) {
	s := NewStore()
	prefix := [16]byte{0x20, 0x01}
	s.Prefixes = []PrefixEntry{
		{Prefix: prefix, PrefixLen: 16, BorderRouter: []BorderRouterEntry{{Rloc16: 0x1000, Valid: false}}},
	}
	addr := [16]byte{0x20, 0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	if s.IsOnMesh(addr) {
		t.Fatal("IsOnMesh true with no Valid border-router entry")
	}
	s.Prefixes[0].BorderRouter[0].Valid = true
	if !s.IsOnMesh(addr) {
		t.Fatal("IsOnMesh false despite a Valid border-router entry")
	}
}

func TestStableOnlyDropsTemporaryEntries(t *testing.T) {
	s := NewStore()
	s.Prefixes = []PrefixEntry{
		{Prefix: [16]byte{1}, PrefixLen: 8, Stable: true,
			HasRoute:     []HasRouteEntry{{Rloc16: 1, Stable: true}, {Rloc16: 2, Stable: false}},
			BorderRouter: []BorderRouterEntry{{Rloc16: 3, Valid: true, Stable: false}}},
		{Prefix: [16]byte{2}, PrefixLen: 8, Stable: false},
	}

	stable := s.StableOnly()
	if len(stable.Prefixes) != 1 {
		t.Fatalf("StableOnly kept %d prefixes, want 1", len(stable.Prefixes))
	}
	if len(stable.Prefixes[0].HasRoute) != 1 || stable.Prefixes[0].HasRoute[0].Rloc16 != 1 {
		t.Fatalf("StableOnly kept non-stable HasRoute entries: %+v", stable.Prefixes[0].HasRoute)
	}
	if len(stable.Prefixes[0].BorderRouter) != 0 {
		t.Fatalf("StableOnly kept a non-stable BorderRouter entry: %+v", stable.Prefixes[0].BorderRouter)
	}
}

func TestRemoveByRlocStripsOnlyMatchingEntries(t *testing.T) {
	s := NewStore()
	s.Prefixes = []PrefixEntry{
		{Prefix: [16]byte{1}, PrefixLen: 8, Rloc16: 0x1000,
			HasRoute: []HasRouteEntry{{Rloc16: 0x1000}, {Rloc16: 0x2000}}},
	}
	changed, _, _ := s.removeByRloc(0x1000)
	if !changed {
		t.Fatal("removeByRloc reported no change")
	}
	if len(s.Prefixes) != 1 {
		t.Fatalf("expected the prefix itself to remain once its other rloc's route survives, got %d prefixes", len(s.Prefixes))
	}
	if len(s.Prefixes[0].HasRoute) != 1 || s.Prefixes[0].HasRoute[0].Rloc16 != 0x2000 {
		t.Fatalf("HasRoute after removal = %+v, want only the 0x2000 entry", s.Prefixes[0].HasRoute)
	}
}

// TestRemoveByRlocReleasesContextWhenLastBorderRouterGoes reproduces
// spec.md §8 scenario 6: once the last border-router entry backing a
// prefix's compression context is removed, the context is marked
// not-compress (its sub-TLV survives for decompression) and its id is
// reported for release.
func TestRemoveByRlocReleasesContextWhenLastBorderRouterGoes(t *testing.T) {
	s := NewStore()
	s.Prefixes = []PrefixEntry{
		{Prefix: [16]byte{1}, PrefixLen: 8,
			BorderRouter: []BorderRouterEntry{{Rloc16: 0x1000, Valid: true}},
			Context:      &ContextSubTLV{ContextID: 1, Compress: true}},
	}

	changed, _, freed := s.removeByRloc(0x1000)
	if !changed {
		t.Fatal("removeByRloc reported no change")
	}
	if len(freed) != 1 || freed[0] != 1 {
		t.Fatalf("freedContextIDs = %v, want [1]", freed)
	}
	if len(s.Prefixes) != 1 {
		t.Fatalf("expected the prefix TLV to survive for decompression, got %d prefixes", len(s.Prefixes))
	}
	if s.Prefixes[0].Context == nil || s.Prefixes[0].Context.Compress {
		t.Fatalf("Context after removal = %+v, want Compress=false and the sub-TLV retained", s.Prefixes[0].Context)
	}
}
