package netdata

import (
	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/logging"
	"github.com/hwipl/thread-core/internal/mleiface"
)

var log = logging.For("netdata")

// Leader is the node acting as the Thread Network Data Leader: it owns
// the canonical Store, allocates compression contexts, and answers
// server-data registrations over the "n/sd" CoAP resource (spec.md
// §4.7).
type Leader struct {
	Store          *Store
	contexts       *ContextAllocator
	mle            mleiface.MLE
	ids            *coap.IDGenerator
	addrs          AddressConfigurator
	localAddresses []localAddress
}

// New builds a Leader, registers "n/sd" on server, and seeds its
// message-id generator.
func New(mle mleiface.MLE, idSeed uint16, server *coap.Server) *Leader {
	l := &Leader{
		Store:    NewStore(),
		contexts: NewContextAllocator(),
		mle:      mle,
		ids:      coap.NewIDGenerator(idSeed),
	}
	server.AddResource("n/sd", l.handleServerData)
	return l
}

// Tick advances the context-reuse timer by one second (spec.md §4.7's
// 1Hz leader timer). When the timer frees a context id back to the pool,
// Version and StableVersion both advance (spec.md §8 scenario 6).
func (l *Leader) Tick() {
	if freed := l.contexts.Tick(); len(freed) > 0 {
		l.Store.bumpVersion(true)
	}
}

// RegisterServerData implements spec.md §4.7's server-data
// registration: remove every TLV previously attributed to rloc16, then
// splice in entries, allocating a context for any prefix that needs
// 6LoWPAN compression and doesn't already have one. It reports the
// accepted entries (with contexts filled in) and bumps Store's version
// counters when anything changed.
func (l *Leader) RegisterServerData(rloc16 uint16, entries []PrefixEntry) ([]PrefixEntry, corerr.Kind) {
	removedChanged, removedStable, freedContextIDs := l.Store.removeByRloc(rloc16)
	for _, id := range freedContextIDs {
		l.contexts.Release(id)
	}

	for i := range entries {
		e := &entries[i]
		e.Rloc16 = rloc16
		if e.Context != nil && e.Context.Compress {
			if existing, ok := l.Store.findPrefix(e.DomainID, e.Prefix, e.PrefixLen); ok && existing.Context != nil {
				e.Context.ContextID = existing.Context.ContextID
				continue
			}
			id, kind := l.contexts.Allocate()
			if kind.Fail() {
				log.WithField("prefixLen", e.PrefixLen).Warn("context allocation failed, registering without compression")
				e.Context = nil
				continue
			}
			e.Context.ContextID = id
		}
	}

	l.Store.addPrefixEntries(entries)

	if removedChanged || len(entries) > 0 {
		l.Store.bumpVersion(removedStable || anyStable(entries))
	}
	l.configureAddresses()
	return entries, corerr.None
}

// releaseUnreferencedContexts is a safety net catching any context id
// still marked in-use that no Prefix in the store is actively
// compressing against; removeByRloc already releases a context the
// moment its last border router goes away, so this ordinarily has
// nothing left to do.
func (l *Leader) releaseUnreferencedContexts() {
	referenced := map[uint8]bool{}
	for _, p := range l.Store.Prefixes {
		if p.Context != nil && p.Context.Compress {
			referenced[p.Context.ContextID] = true
		}
	}
	for id := uint8(1); id <= MaxContextID; id++ {
		if l.contexts.InUse(id) && !referenced[id] {
			l.contexts.Release(id)
		}
	}
}

// handleServerData decodes a server-data registration payload (a
// sequence of Thread Prefix TLVs with embedded sub-TLVs) and applies
// it via RegisterServerData. It accepts the encoding EncodeRegistration
// produces: a flat sequence of Prefix TLVs, each carrying its
// HasRoute/BorderRouter/Context sub-TLVs nested in its value.
func (l *Leader) handleServerData(req *coap.Message, senderRloc16 uint16) (*coap.Message, bool) {
	entries, kind := DecodeRegistration(req.Payload)
	if kind.Fail() {
		return nil, false
	}
	if _, kind := l.RegisterServerData(senderRloc16, entries); kind.Fail() {
		return nil, false
	}
	l.releaseUnreferencedContexts()
	return &coap.Message{Type: coap.TypeAck, Code: coap.CodeChanged, MessageID: req.MessageID}, true
}

// RouteLookup implements spec.md §4.7's route lookup: find the prefix
// covering dst, then pick the best of its HasRoute (external-route) and
// BorderRouter (default-route) entries by preference, breaking ties by
// the MLE-reported route cost to each candidate rloc16. matchLen is the
// winning prefix's length, used by callers to prefer more specific
// routes across multiple lookups.
func (l *Leader) RouteLookup(src, dst [16]byte) (rloc16 uint16, matchLen int, kind corerr.Kind) {
	p, ok := l.Store.LongestMatch(dst)
	if !ok {
		return 0, 0, corerr.NoRoute
	}

	type candidate struct {
		rloc16     uint16
		preference int8
	}
	var candidates []candidate
	for _, hr := range p.HasRoute {
		candidates = append(candidates, candidate{hr.Rloc16, hr.Preference})
	}
	for _, br := range p.BorderRouter {
		if br.Valid {
			candidates = append(candidates, candidate{br.Rloc16, 0})
		}
	}
	if len(candidates) == 0 {
		return 0, 0, corerr.NoRoute
	}

	best := candidates[0]
	bestCost := l.mle.GetRouteCost(best.rloc16)
	for _, c := range candidates[1:] {
		if c.preference > best.preference {
			best, bestCost = c, l.mle.GetRouteCost(c.rloc16)
			continue
		}
		if c.preference < best.preference {
			continue
		}
		cost := l.mle.GetRouteCost(c.rloc16)
		if cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best.rloc16, p.PrefixLen, corerr.None
}

// IsOnMesh satisfies forwarder.NetworkData.
func (l *Leader) IsOnMesh(dst [16]byte) bool {
	return l.Store.IsOnMesh(dst)
}
