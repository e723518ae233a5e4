// Package mleiface declares the narrow view of Mesh Link Establishment
// the core's other components borrow (spec.md §9, "Cyclic references":
// MLE is specified elsewhere and consumed through a narrow interface
// rather than owned).
package mleiface

// ThreadState is a node's attach state in the Thread mesh.
type ThreadState uint8

const (
	StateDetached ThreadState = iota
	StateChild
	StateRouter
	StateLeader
)

func (s ThreadState) String() string {
	switch s {
	case StateDetached:
		return "Detached"
	case StateChild:
		return "Child"
	case StateRouter:
		return "Router"
	case StateLeader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// MLE is the subset of Mesh Link Establishment the Mesh Forwarder and
// Address Resolver consult: attach state, routing-locator recognition,
// and next-hop/route-cost lookups (spec.md §4.5/§4.7's RouteLookup
// tie-break).
type MLE interface {
	ThreadState() ThreadState
	// IsRoutingLocator reports whether addr is one of our own
	// routing-locator addresses and, if so, its embedded short
	// address.
	IsRoutingLocator(addr [16]byte) (rloc16 uint16, ok bool)
	// GetNextHop returns the neighbor short address to use as the
	// next hop towards destRloc16.
	GetNextHop(destRloc16 uint16) uint16
	// GetRouteCost returns the routing cost to destRloc16, used for
	// the network-data route-lookup tie-break.
	GetRouteCost(destRloc16 uint16) uint8
	// SendLinkReject sends a link-reject to previousHop, the neighbor
	// a dropped frame arrived from (spec.md §4.5/§4.9, a security or
	// reachability failure on RX).
	SendLinkReject(previousHop uint16)
}
