// Package netdata implements the Network Data Leader role: the
// Prefix/HasRoute/BorderRouter/Context TLV store, server-data
// registration, context allocation with reuse delay, and route lookup
// (spec.md §4.7).
package netdata

// Network-data sub-TLV type numbers (spec.md §3/§6), distinct from the
// Thread TLV numbering internal/coap uses for CoAP payloads.
const (
	SubTLVHasRoute     = 0
	SubTLVPrefix       = 1
	SubTLVBorderRouter = 2
	SubTLVContext      = 3
)

// MaxContextID is the highest allocatable context id; ids 1..15 are
// drawn from a free pool, 0 is reserved (spec.md §4.7).
const MaxContextID = 15

// HasRouteEntry is one external-route entry within a Prefix TLV.
type HasRouteEntry struct {
	Rloc16     uint16
	Preference int8
	Stable     bool
}

// BorderRouterEntry is one on-mesh border-router entry within a
// Prefix TLV.
type BorderRouterEntry struct {
	Rloc16 uint16
	Flags  uint16
	Valid  bool
	Stable bool
}

// ContextSubTLV records a prefix's 6LoWPAN compression context
// assignment (spec.md §4.7).
type ContextSubTLV struct {
	ContextID     uint8
	ContextLength int
	Compress      bool
	Stable        bool
}

// PrefixEntry is one on-mesh prefix TLV: the prefix itself plus its
// sub-TLVs (spec.md §3).
type PrefixEntry struct {
	DomainID     uint8
	Prefix       [16]byte
	PrefixLen    int
	Stable       bool
	HasRoute     []HasRouteEntry
	BorderRouter []BorderRouterEntry
	Context      *ContextSubTLV
	Rloc16       uint16 // registrant, used by RegisterServerData's rloc-scoped replace
}

// Store is the canonical network-data TLV collection: a set of Prefix
// entries, each carrying its own sub-TLVs.
type Store struct {
	Prefixes      []PrefixEntry
	Version       uint8
	StableVersion uint8
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

func matchBits(a, b [16]byte, n int) bool {
	full := n / 8
	for i := 0; i < full; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if rem := n % 8; rem > 0 {
		mask := byte(0xff << (8 - rem))
		if a[full]&mask != b[full]&mask {
			return false
		}
	}
	return true
}

// findPrefix returns the PrefixEntry for an exact (prefix, len, domain)
// match.
func (s *Store) findPrefix(domainID uint8, prefix [16]byte, prefixLen int) (*PrefixEntry, bool) {
	for i := range s.Prefixes {
		p := &s.Prefixes[i]
		if p.DomainID == domainID && p.PrefixLen == prefixLen && matchBits(p.Prefix, prefix, prefixLen) {
			return p, true
		}
	}
	return nil, false
}

// LongestMatch returns the prefix TLV with the longest match against
// addr, or false if none matches.
func (s *Store) LongestMatch(addr [16]byte) (*PrefixEntry, bool) {
	var best *PrefixEntry
	for i := range s.Prefixes {
		p := &s.Prefixes[i]
		if matchBits(p.Prefix, addr, p.PrefixLen) {
			if best == nil || p.PrefixLen > best.PrefixLen {
				best = p
			}
		}
	}
	return best, best != nil
}

// IsOnMesh reports whether dst falls under a prefix carrying a Valid
// border-router entry (spec.md §4.7's address-configuration walk).
func (s *Store) IsOnMesh(dst [16]byte) bool {
	p, ok := s.LongestMatch(dst)
	if !ok {
		return false
	}
	for _, br := range p.BorderRouter {
		if br.Valid {
			return true
		}
	}
	return false
}

// bumpVersion increments Version and, if changed is stable, StableVersion,
// both modulo 256 (spec.md §3).
func (s *Store) bumpVersion(stable bool) {
	s.Version++
	if stable {
		s.StableVersion++
	}
}

// StableOnly returns a copy of the store containing only stable TLVs
// and stable sub-TLV entries (a supplemented feature: distributing only
// the stable subset to resource-constrained peers).
func (s *Store) StableOnly() *Store {
	out := &Store{Version: s.Version, StableVersion: s.StableVersion}
	for _, p := range s.Prefixes {
		if !p.Stable {
			continue
		}
		np := PrefixEntry{DomainID: p.DomainID, Prefix: p.Prefix, PrefixLen: p.PrefixLen, Stable: true, Rloc16: p.Rloc16}
		for _, hr := range p.HasRoute {
			if hr.Stable {
				np.HasRoute = append(np.HasRoute, hr)
			}
		}
		for _, br := range p.BorderRouter {
			if br.Stable {
				np.BorderRouter = append(np.BorderRouter, br)
			}
		}
		if p.Context != nil && p.Context.Stable {
			ctx := *p.Context
			np.Context = &ctx
		}
		out.Prefixes = append(out.Prefixes, np)
	}
	return out
}

// removeByRloc deletes every TLV entry attributed to rloc16, across all
// prefixes, as spec.md §4.7's server-data registration requires before
// splicing in the registrant's fresh TLVs. When this strips the last
// border-router entry backing a prefix's compression context, the
// context is marked not-compress (its sub-TLV stays, for decompressing
// datagrams already in flight) and its id is reported in
// freedContextIDs for the caller to release back to the reuse-delay
// pool. It also reports whether anything changed and whether any
// removed entry was stable.
func (s *Store) removeByRloc(rloc16 uint16) (changed, touchedStable bool, freedContextIDs []uint8) {
	kept := s.Prefixes[:0]
	for _, p := range s.Prefixes {
		hr := p.HasRoute[:0]
		for _, e := range p.HasRoute {
			if e.Rloc16 == rloc16 {
				changed = true
				if e.Stable {
					touchedStable = true
				}
				continue
			}
			hr = append(hr, e)
		}
		p.HasRoute = hr

		br := p.BorderRouter[:0]
		for _, e := range p.BorderRouter {
			if e.Rloc16 == rloc16 {
				changed = true
				if e.Stable {
					touchedStable = true
				}
				continue
			}
			br = append(br, e)
		}
		p.BorderRouter = br

		if len(p.BorderRouter) == 0 && p.Context != nil && p.Context.Compress {
			p.Context.Compress = false
			freedContextIDs = append(freedContextIDs, p.Context.ContextID)
			changed = true
			if p.Context.Stable {
				touchedStable = true
			}
		}

		if len(p.HasRoute) == 0 && len(p.BorderRouter) == 0 && p.Context == nil {
			// nothing left justifies keeping the prefix TLV itself.
			changed = true
			if p.Stable {
				touchedStable = true
			}
			continue
		}

		kept = append(kept, p)
	}
	s.Prefixes = kept
	return changed, touchedStable, freedContextIDs
}

// addPrefixEntries splices new into the store, merging into an existing
// (domainID, prefix, prefixLen) entry if one is present.
func (s *Store) addPrefixEntries(entries []PrefixEntry) {
	for _, e := range entries {
		if existing, ok := s.findPrefix(e.DomainID, e.Prefix, e.PrefixLen); ok {
			existing.HasRoute = append(existing.HasRoute, e.HasRoute...)
			existing.BorderRouter = append(existing.BorderRouter, e.BorderRouter...)
			if e.Context != nil {
				existing.Context = e.Context
			}
			existing.Rloc16 = e.Rloc16
			continue
		}
		s.Prefixes = append(s.Prefixes, e)
	}
}

// anyStable reports whether any of entries is itself stable or carries a
// stable sub-TLV.
func anyStable(entries []PrefixEntry) bool {
	for _, e := range entries {
		if e.Stable {
			return true
		}
		for _, hr := range e.HasRoute {
			if hr.Stable {
				return true
			}
		}
		for _, br := range e.BorderRouter {
			if br.Stable {
				return true
			}
		}
		if e.Context != nil && e.Context.Stable {
			return true
		}
	}
	return false
}
