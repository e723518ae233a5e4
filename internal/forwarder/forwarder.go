package forwarder

import (
	"github.com/hwipl/thread-core/internal/buffer"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/logging"
	"github.com/hwipl/thread-core/internal/lowpan"
	"github.com/hwipl/thread-core/internal/mac"
	"github.com/hwipl/thread-core/internal/mleiface"
	"github.com/hwipl/thread-core/internal/neighbor"
)

var log = logging.For("forwarder")

// Resolver is the narrow view of the Address Resolver the forwarder
// consults for on-mesh destinations (spec.md §9, "netif" borrowed
// references rather than ownership).
type Resolver interface {
	Resolve(dst [16]byte) (rloc16 uint16, kind corerr.Kind)
}

// NetworkData is the narrow view of the Network Data Leader the
// forwarder consults for on-mesh/external route lookups.
type NetworkData interface {
	IsOnMesh(dst [16]byte) bool
	RouteLookup(src, dst [16]byte) (rloc16 uint16, matchLen int, kind corerr.Kind)
}

// Forwarder is the Mesh Forwarder: SendQueue/ResolvingQueue/
// ReassemblyList plus route selection and fragmentation (spec.md §4.5).
type Forwarder struct {
	SendQueue      *buffer.PriorityQueue
	ResolvingQueue *buffer.MessageQueue
	Reassembly     *ReassemblyList

	tags *TagAllocator

	ownShort uint16
	isFFD    bool
	parent   uint16 // next hop towards our parent, RFD only

	mle       mleiface.MLE
	resolver  Resolver
	netdata   NetworkData
	neighbors *neighbor.Table
	contexts  *lowpan.ContextTable
}

// New wires a Forwarder against its collaborators. ownShort is this
// node's short address; isFFD selects the FFD/RFD branch of route
// selection (spec.md §4.5).
func New(pool *buffer.Pool, ownShort uint16, isFFD bool, tagSeed uint16, mle mleiface.MLE, resolver Resolver, netdata NetworkData, neighbors *neighbor.Table) *Forwarder {
	return &Forwarder{
		SendQueue:      buffer.NewPriorityQueue(),
		ResolvingQueue: buffer.NewMessageQueue(),
		Reassembly:     NewReassemblyList(pool),
		tags:           NewTagAllocator(tagSeed),
		ownShort:       ownShort,
		isFFD:          isFFD,
		mle:            mle,
		resolver:       resolver,
		netdata:        netdata,
		neighbors:      neighbors,
		contexts:       lowpan.NewContextTable(),
	}
}

// ConfigureContext installs a 6LoWPAN compression context CheckReachability
// decompresses mesh-transit headers against, mirroring a Context sub-TLV
// the Network Data Leader has registered.
func (f *Forwarder) ConfigureContext(id uint8, prefix [16]byte, prefixLen int, compress bool) {
	f.contexts.Set(id, prefix, prefixLen, compress)
}

// SetParent records the next hop towards our parent, used by the RFD
// branch of route selection.
func (f *Forwarder) SetParent(parentShort uint16) { f.parent = parentShort }

// SendMessage enqueues msg on SendQueue, marking it for direct
// transmission (spec.md §2's "IP layer -> Mesh Forwarder.SendMessage").
func (f *Forwarder) SendMessage(msg *buffer.Message) corerr.Kind {
	msg.DirectTx = true
	return f.SendQueue.Enqueue(msg)
}

// isLinkLocalOrMulticast reports whether dst needs no mesh routing: a
// link-local unicast or any multicast address (spec.md §4.5).
func isLinkLocalOrMulticast(dst [16]byte) bool {
	if dst[0] == 0xff {
		return true
	}
	return dst[0] == 0xfe && dst[1]&0xc0 == 0x80
}

// RouteResult is the outcome of SelectRoute: either a direct neighbor
// short address, or a mesh header to insert ahead of the payload plus
// the next-hop neighbor to address at the MAC layer.
type RouteResult struct {
	DirectNeighbor uint16
	Mesh           *MeshHeader
	NextHop        uint16
}

// SelectRoute implements spec.md §4.5's route-selection rules for
// direct transmission.
func (f *Forwarder) SelectRoute(src, dst [16]byte) (RouteResult, corerr.Kind) {
	if isLinkLocalOrMulticast(dst) {
		short := uint16(dst[14])<<8 | uint16(dst[15])
		return RouteResult{DirectNeighbor: short}, corerr.None
	}

	if f.mle.ThreadState() == mleiface.StateDetached {
		return RouteResult{}, corerr.NoRoute
	}

	var destRloc16 uint16

	if !f.isFFD {
		destRloc16 = f.parent
	} else {
		if rloc, ok := f.mle.IsRoutingLocator(dst); ok {
			destRloc16 = rloc
		} else if n, ok := f.neighborForAddr(dst); ok {
			destRloc16 = n.ShortAddr
		} else if f.netdata.IsOnMesh(dst) {
			rloc, kind := f.resolver.Resolve(dst)
			if kind == corerr.LeaseQuery {
				return RouteResult{}, corerr.LeaseQuery
			}
			if kind.Fail() {
				return RouteResult{}, kind
			}
			destRloc16 = rloc
		} else {
			rloc, _, kind := f.netdata.RouteLookup(src, dst)
			if kind.Fail() {
				return RouteResult{}, kind
			}
			destRloc16 = rloc
		}
	}

	if n, ok := f.neighbors.FindShort(destRloc16); ok && n.State == neighbor.StateValid {
		return RouteResult{DirectNeighbor: destRloc16}, corerr.None
	}

	nextHop := f.mle.GetNextHop(destRloc16)
	return RouteResult{
		Mesh:    &MeshHeader{HopsLeft: 15, Source: f.ownShort, Destination: destRloc16},
		NextHop: nextHop,
	}, corerr.None
}

// neighborForAddr finds a Valid neighbor whose derived IID matches
// dst's low 64 bits, used for the "destination is a neighbor" check.
func (f *Forwarder) neighborForAddr(dst [16]byte) (*neighbor.Entry, bool) {
	for _, n := range f.neighbors.Valid() {
		iid := extendedIID(n.ExtAddr)
		if iidMatches(dst, iid) {
			return n, true
		}
	}
	return nil, false
}

func extendedIID(ext [8]byte) [8]byte {
	iid := ext
	iid[0] ^= 0x02
	return iid
}

func iidMatches(addr [16]byte, iid [8]byte) bool {
	for i := 0; i < 8; i++ {
		if addr[8+i] != iid[i] {
			return false
		}
	}
	return true
}

// CheckReachability decompresses the base IPv6 header carried in msg at
// its current read offset (macSrc/macDst are the mesh header's source
// and destination, used to derive elided IIDs) and confirms the
// destination is still one this node can route towards: on mesh and
// reachable through a known next hop (spec.md §4.5).
func (f *Forwarder) CheckReachability(h *MeshHeader, msg *buffer.Message) corerr.Kind {
	want := msg.Length() - msg.Offset()
	if want <= 0 {
		return corerr.Parse
	}
	buf := make([]byte, want)
	msg.Read(msg.Offset(), want, buf)

	macSrc := mac.Address{Mode: mac.AddrModeShort, Short: h.Source}
	macDst := mac.Address{Mode: mac.AddrModeShort, Short: h.Destination}

	header, _, kind := lowpan.Decompress(buf, macSrc, macDst, f.contexts)
	if kind.Fail() {
		return corerr.Parse
	}
	if !f.netdata.IsOnMesh(header.Dst) {
		return corerr.NoRoute
	}

	nextHop := f.mle.GetNextHop(h.Destination)
	if n, ok := f.neighbors.FindShort(nextHop); !ok || n.State != neighbor.StateValid {
		return corerr.NoRoute
	}
	return corerr.None
}

// MeshTransit handles a received mesh-routed frame whose destination is
// not us: decrements hopsLeft and re-enqueues for forwarding. A frame
// whose hopsLeft is already exhausted is dropped. If CheckReachability
// fails, an MLE link-reject is sent to previousHop (the neighbor the
// frame arrived from) and the frame is dropped (spec.md §4.5).
func (f *Forwarder) MeshTransit(h *MeshHeader, msg *buffer.Message, previousHop uint16) corerr.Kind {
	if h.HopsLeft == 0 {
		log.WithField("source", h.Source).Warn("mesh transit dropped, hops exhausted")
		return corerr.Drop
	}
	if kind := f.CheckReachability(h, msg); kind.Fail() {
		log.WithField("source", h.Source).WithField("destination", h.Destination).Warn("mesh transit dropped, reachability check failed")
		f.mle.SendLinkReject(previousHop)
		return corerr.Drop
	}
	h.HopsLeft--
	msg.DirectTx = true
	return f.SendQueue.Enqueue(msg)
}

// ScheduleTransmission is the tasklet the driver runs whenever the MAC
// is idle and no send is already in flight. It favors indirect
// transmission to a polling sleepy child, walking SendQueue for the
// next message whose ChildMask includes that child, falling back to the
// first directTx SendQueue entry (spec.md §4.5).
func (f *Forwarder) ScheduleTransmission(pollers []*neighbor.Entry) (msg *buffer.Message, indirectTo uint16, kind corerr.Kind) {
	for _, child := range pollers {
		if child.State != neighbor.StateValid {
			continue
		}
		bit := uint64(1) << uint(child.ShortAddr&0x3f)
		var found *buffer.Message
		f.SendQueue.Each(func(m *buffer.Message) {
			if found == nil && m.ChildMask&bit != 0 {
				found = m
			}
		})
		if found != nil {
			return found, child.ShortAddr, corerr.None
		}
	}

	var direct *buffer.Message
	f.SendQueue.Each(func(m *buffer.Message) {
		if direct == nil && m.DirectTx {
			direct = m
		}
	})
	if direct == nil {
		return nil, 0, corerr.NotFound
	}
	f.SendQueue.Dequeue(direct)
	return direct, 0, corerr.None
}
