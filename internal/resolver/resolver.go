package resolver

import (
	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/logging"
	"github.com/hwipl/thread-core/internal/neighbor"
)

var log = logging.For("resolver")

// CoapUdpPort is the well-known UDP port the core's CoAP resources
// listen on (spec.md §6, kCoapUdpPort).
const CoapUdpPort = 61631

// multicastAllRouters is ff03::2, the address the address-query
// resource is sent to (spec.md §4.6).
var multicastAllRouters = [16]byte{0xff, 0x03, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x02}

// Sender transmits a finished CoAP message to a peer's unicast or
// multicast address over the resolver's UDP socket.
type Sender func(dst [16]byte, wire []byte)

// Resolver wires the EID-to-RLOC Cache to its CoAP resources ("a/aq",
// "a/an", "a/ae") and ICMPv6 unreachable handling (spec.md §4.6).
type Resolver struct {
	Cache *Cache

	ownExtAddr   [8]byte
	ownAddresses [][16]byte
	neighbors    *neighbor.Table
	ids          *coap.IDGenerator
	send         Sender
	onResolved   func(target [16]byte)
}

// New builds a Resolver, registers its CoAP resources on server, and
// seeds its message-id generator.
func New(ownExtAddr [8]byte, neighbors *neighbor.Table, idSeed uint16, send Sender, onResolved func(target [16]byte), server *coap.Server) *Resolver {
	r := &Resolver{
		Cache:      NewCache(),
		ownExtAddr: ownExtAddr,
		neighbors:  neighbors,
		ids:        coap.NewIDGenerator(idSeed),
		send:       send,
		onResolved: onResolved,
	}
	server.AddResource("a/aq", r.handleAddressQuery)
	server.AddResource("a/an", r.handleAddressNotification)
	server.AddResource("a/ae", r.handleAddressError)
	return r
}

// SetOwnAddresses replaces the set of unicast addresses this node
// answers address-queries for.
func (r *Resolver) SetOwnAddresses(addrs [][16]byte) {
	r.ownAddresses = addrs
}

func (r *Resolver) ownsAddress(addr [16]byte) bool {
	for _, a := range r.ownAddresses {
		if a == addr {
			return true
		}
	}
	return false
}

// Resolve looks up target, emitting an "a/aq" address-query on a cache
// miss (spec.md §4.6 scenario 5). It satisfies the forwarder.Resolver
// interface.
func (r *Resolver) Resolve(target [16]byte) (rloc16 uint16, kind corerr.Kind) {
	rloc16, kind, isNew := r.Cache.Resolve(target)
	if isNew {
		r.sendAddressQuery(target)
	}
	return rloc16, kind
}

func (r *Resolver) sendAddressQuery(target [16]byte) {
	payload, _ := coap.EncodeTLVs([]coap.TLV{{Type: coap.TLVTarget, Value: target[:]}})
	msg := &coap.Message{Type: coap.TypeNonConfirmable, Code: coap.CodePost, MessageID: r.ids.Next(), Payload: payload}
	msg.SetUriPath("a/aq")
	msg.Options = append(msg.Options, coap.Option{Number: coap.OptionContentFormat, Value: []byte{coap.ContentFormatOctetStream}})
	wire, kind := msg.Encode()
	if kind.Fail() {
		log.WithField("kind", kind).Warn("failed to encode address query")
		return
	}
	r.send(multicastAllRouters, wire)
}

// handleAddressQuery implements spec.md §4.6's "Handling query":
// answer with our own IID if we own the target, else search the child
// table for a Valid RFD-equivalent child registered under it.
func (r *Resolver) handleAddressQuery(req *coap.Message, senderRloc16 uint16) (*coap.Message, bool) {
	tlvs, kind := coap.ParseTLVs(req.Payload)
	if kind.Fail() {
		return nil, false
	}
	targetTLV, ok := coap.Find(tlvs, coap.TLVTarget)
	if !ok || len(targetTLV.Value) != 16 {
		return nil, false
	}
	var target [16]byte
	copy(target[:], targetTLV.Value)

	if r.ownsAddress(target) {
		r.sendAddressNotification(target, extendedIID(r.ownExtAddr), 0, 0)
		return nil, false
	}

	for _, child := range r.neighbors.Valid() {
		if child.IsFFD() {
			continue
		}
		iid := extendedIID(child.ExtAddr)
		if iidMatchesTarget(target, iid) {
			r.sendAddressNotification(target, iid, child.ShortAddr, child.LastHeard)
			return nil, false
		}
	}
	return nil, false
}

func extendedIID(ext [8]byte) [8]byte {
	iid := ext
	iid[0] ^= 0x02
	return iid
}

func iidMatchesTarget(target [16]byte, iid [8]byte) bool {
	for i := 0; i < 8; i++ {
		if target[8+i] != iid[i] {
			return false
		}
	}
	return true
}

func (r *Resolver) sendAddressNotification(target [16]byte, iid [8]byte, rloc16 uint16, lastHeard int64) {
	tlvs := []coap.TLV{
		{Type: coap.TLVTarget, Value: target[:]},
		{Type: coap.TLVMeshLocalEid, Value: iid[:]},
		{Type: coap.TLVRloc16, Value: []byte{byte(rloc16 >> 8), byte(rloc16)}},
	}
	payload, _ := coap.EncodeTLVs(tlvs)
	msg := &coap.Message{Type: coap.TypeConfirmable, Code: coap.CodePost, MessageID: r.ids.Next(), Payload: payload}
	msg.SetUriPath("a/an")
	r.send(target, mustEncode(msg))
}

// handleAddressNotification implements spec.md §4.6's "Handling
// notification".
func (r *Resolver) handleAddressNotification(req *coap.Message, senderRloc16 uint16) (*coap.Message, bool) {
	tlvs, kind := coap.ParseTLVs(req.Payload)
	if kind.Fail() {
		return nil, false
	}
	targetTLV, ok1 := coap.Find(tlvs, coap.TLVTarget)
	iidTLV, ok2 := coap.Find(tlvs, coap.TLVMeshLocalEid)
	rlocTLV, ok3 := coap.Find(tlvs, coap.TLVRloc16)
	if !ok1 || !ok2 || !ok3 || len(targetTLV.Value) != 16 || len(iidTLV.Value) != 8 || len(rlocTLV.Value) != 2 {
		return nil, false
	}

	var target [16]byte
	copy(target[:], targetTLV.Value)
	var iid [8]byte
	copy(iid[:], iidTLV.Value)
	rloc16 := uint16(rlocTLV.Value[0])<<8 | uint16(rlocTLV.Value[1])

	adopted, conflict := r.Cache.HandleNotification(target, iid, rloc16, 0)
	if adopted {
		if r.onResolved != nil {
			r.onResolved(target)
		}
		return &coap.Message{Type: coap.TypeAck, Code: coap.CodeChanged, MessageID: req.MessageID}, true
	}
	if conflict {
		r.sendAddressError(target, iid)
	}
	return nil, false
}

func (r *Resolver) sendAddressError(target [16]byte, iid [8]byte) {
	tlvs := []coap.TLV{
		{Type: coap.TLVTarget, Value: target[:]},
		{Type: coap.TLVMeshLocalEid, Value: iid[:]},
	}
	payload, _ := coap.EncodeTLVs(tlvs)
	msg := &coap.Message{Type: coap.TypeNonConfirmable, Code: coap.CodePost, MessageID: r.ids.Next(), Payload: payload}
	msg.SetUriPath("a/ae")
	r.send(multicastAllRouters, mustEncode(msg))
}

// handleAddressError handles an "a/ae" address-error: it invalidates the
// cache entry for the error's target when the stored IID differs from the
// error's IID (Cache.HandleError). It does not walk this node's own
// addresses or the child table, and it sends no reply.
func (r *Resolver) handleAddressError(req *coap.Message, senderRloc16 uint16) (*coap.Message, bool) {
	tlvs, kind := coap.ParseTLVs(req.Payload)
	if kind.Fail() {
		return nil, false
	}
	targetTLV, ok1 := coap.Find(tlvs, coap.TLVTarget)
	iidTLV, ok2 := coap.Find(tlvs, coap.TLVMeshLocalEid)
	if !ok1 || !ok2 || len(targetTLV.Value) != 16 || len(iidTLV.Value) != 8 {
		return nil, false
	}
	var target [16]byte
	copy(target[:], targetTLV.Value)
	var iid [8]byte
	copy(iid[:], iidTLV.Value)

	r.Cache.HandleError(target, iid)
	return nil, false
}

func mustEncode(m *coap.Message) []byte {
	wire, _ := m.Encode()
	return wire
}
