package netif

import (
	"github.com/hwipl/thread-core/internal/logging"
	"github.com/hwipl/thread-core/internal/mleiface"
)

var log = logging.For("netif")

// StaticMLE is a minimal stand-in for Mesh Link Establishment.
// spec.md §1 treats MLE as a collaborator "specified elsewhere" and out
// of scope for this core; Forwarder and the Network Data Leader still
// need something satisfying mleiface.MLE to run, so StaticMLE reports a
// fixed attach state and a single parent/route-cost table an operator
// or test configures directly, rather than running any attach protocol
// of its own.
type StaticMLE struct {
	state  mleiface.ThreadState
	isFFD  bool
	parent uint16
	rlocs  map[[16]byte]uint16
	costs  map[uint16]uint8
}

// NewStaticMLE returns a StaticMLE reporting state and routing through
// parent by default.
func NewStaticMLE(state mleiface.ThreadState, isFFD bool, parent uint16) *StaticMLE {
	return &StaticMLE{
		state:  state,
		isFFD:  isFFD,
		parent: parent,
		rlocs:  make(map[[16]byte]uint16),
		costs:  make(map[uint16]uint8),
	}
}

// SetRoutingLocator records that addr is one of our own
// routing-locator addresses embedding rloc16.
func (m *StaticMLE) SetRoutingLocator(addr [16]byte, rloc16 uint16) {
	m.rlocs[addr] = rloc16
}

// SetRouteCost records the routing cost reported for dest.
func (m *StaticMLE) SetRouteCost(dest uint16, cost uint8) {
	m.costs[dest] = cost
}

// SetParent updates the next hop GetNextHop reports.
func (m *StaticMLE) SetParent(parent uint16) {
	m.parent = parent
}

// SetState updates the reported attach state.
func (m *StaticMLE) SetState(state mleiface.ThreadState) {
	m.state = state
}

// IsFFD reports whether this node is a Full Function Device, used by
// netif.New to pick the Forwarder's FFD/RFD route-selection branch.
func (m *StaticMLE) IsFFD() bool { return m.isFFD }

func (m *StaticMLE) ThreadState() mleiface.ThreadState { return m.state }

func (m *StaticMLE) IsRoutingLocator(addr [16]byte) (uint16, bool) {
	rloc16, ok := m.rlocs[addr]
	return rloc16, ok
}

func (m *StaticMLE) GetNextHop(destRloc16 uint16) uint16 {
	return m.parent
}

func (m *StaticMLE) GetRouteCost(destRloc16 uint16) uint8 {
	if c, ok := m.costs[destRloc16]; ok {
		return c
	}
	return 1
}

// SendLinkReject logs the reject; a stand-in has no attach protocol to
// actually notify previousHop over.
func (m *StaticMLE) SendLinkReject(previousHop uint16) {
	log.WithField("previousHop", previousHop).Warn("link reject")
}

// AddUnicastAddress logs the address the Network Data Leader configured
// for an on-mesh prefix; a stand-in has no real interface to install it
// on.
func (m *StaticMLE) AddUnicastAddress(addr [16]byte, prefixLen int) {
	log.WithField("addr", addr).WithField("prefixLen", prefixLen).Info("unicast address added")
}

// RemoveUnicastAddress logs the withdrawal of a previously-configured
// on-mesh address.
func (m *StaticMLE) RemoveUnicastAddress(addr [16]byte, prefixLen int) {
	log.WithField("addr", addr).WithField("prefixLen", prefixLen).Info("unicast address removed")
}
