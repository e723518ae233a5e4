package forwarder

import (
	"testing"

	"github.com/hwipl/thread-core/internal/buffer"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/lowpan"
	"github.com/hwipl/thread-core/internal/mac"
	"github.com/hwipl/thread-core/internal/mleiface"
	"github.com/hwipl/thread-core/internal/neighbor"
)

type fakeMLE struct {
	state          mleiface.ThreadState
	rlocs          map[[16]byte]uint16
	nextHop        map[uint16]uint16
	linkRejectedTo uint16
}

func (f *fakeMLE) ThreadState() mleiface.ThreadState { return f.state }
func (f *fakeMLE) IsRoutingLocator(addr [16]byte) (uint16, bool) {
	rloc, ok := f.rlocs[addr]
	return rloc, ok
}
func (f *fakeMLE) GetNextHop(dest uint16) uint16 { return f.nextHop[dest] }
func (f *fakeMLE) GetRouteCost(uint16) uint8     { return 1 }
func (f *fakeMLE) SendLinkReject(previousHop uint16) {
	f.linkRejectedTo = previousHop
}

type fakeResolver struct {
	rloc uint16
	kind corerr.Kind
}

func (f *fakeResolver) Resolve(dst [16]byte) (uint16, corerr.Kind) { return f.rloc, f.kind }

type fakeNetData struct {
	onMesh bool
	rloc   uint16
}

func (f *fakeNetData) IsOnMesh(dst [16]byte) bool { return f.onMesh }
func (f *fakeNetData) RouteLookup(src, dst [16]byte) (uint16, int, corerr.Kind) {
	return f.rloc, 64, corerr.None
}

func TestSelectRouteLinkLocalUsesDerivedShort(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	fw := New(pool, 0x1000, true, 1, &fakeMLE{}, &fakeResolver{}, &fakeNetData{}, neighbor.NewTable(4))

	dst := [16]byte{0xfe, 0x80}
	dst[14], dst[15] = 0x12, 0x34

	res, kind := fw.SelectRoute([16]byte{}, dst)
	if kind.Fail() {
		t.Fatalf("SelectRoute: %s", kind)
	}
	if res.DirectNeighbor != 0x1234 || res.Mesh != nil {
		t.Fatalf("unexpected route result: %+v", res)
	}
}

func TestSelectRouteDetachedFailsWithNoRoute(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	fw := New(pool, 0x1000, true, 1, &fakeMLE{state: mleiface.StateDetached}, &fakeResolver{}, &fakeNetData{}, neighbor.NewTable(4))

	dst := [16]byte{0x20, 0x01}
	_, kind := fw.SelectRoute([16]byte{}, dst)
	if kind != corerr.NoRoute {
		t.Fatalf("SelectRoute kind = %s, want NoRoute", kind)
	}
}

func TestSelectRouteOnMeshUsesResolver(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	mle := &fakeMLE{state: mleiface.StateRouter, nextHop: map[uint16]uint16{0x2000: 0x3000}}
	fw := New(pool, 0x1000, true, 1, mle, &fakeResolver{rloc: 0x2000, kind: corerr.None}, &fakeNetData{onMesh: true}, neighbor.NewTable(4))

	dst := [16]byte{0x20, 0x01}
	res, kind := fw.SelectRoute([16]byte{}, dst)
	if kind.Fail() {
		t.Fatalf("SelectRoute: %s", kind)
	}
	if res.Mesh == nil || res.Mesh.Destination != 0x2000 || res.NextHop != 0x3000 {
		t.Fatalf("unexpected route result: %+v", res)
	}
}

func TestSelectRouteParksOnLeaseQuery(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	mle := &fakeMLE{state: mleiface.StateRouter}
	fw := New(pool, 0x1000, true, 1, mle, &fakeResolver{kind: corerr.LeaseQuery}, &fakeNetData{onMesh: true}, neighbor.NewTable(4))

	dst := [16]byte{0x20, 0x01}
	_, kind := fw.SelectRoute([16]byte{}, dst)
	if kind != corerr.LeaseQuery {
		t.Fatalf("SelectRoute kind = %s, want LeaseQuery", kind)
	}
}

func TestRFDAlwaysRoutesToParent(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	mle := &fakeMLE{state: mleiface.StateChild, nextHop: map[uint16]uint16{0x4000: 0x5000}}
	fw := New(pool, 0x1000, false, 1, mle, &fakeResolver{}, &fakeNetData{}, neighbor.NewTable(4))
	fw.SetParent(0x4000)

	dst := [16]byte{0x20, 0x01}
	res, kind := fw.SelectRoute([16]byte{}, dst)
	if kind.Fail() {
		t.Fatalf("SelectRoute: %s", kind)
	}
	if res.Mesh == nil || res.Mesh.Destination != 0x4000 || res.NextHop != 0x5000 {
		t.Fatalf("unexpected route result: %+v", res)
	}
}

func TestSendMessageEnqueuesDirectTx(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	fw := New(pool, 0x1000, true, 1, &fakeMLE{}, &fakeResolver{}, &fakeNetData{}, neighbor.NewTable(4))

	msg, kind := pool.New(buffer.TypeIP6, 0)
	if kind.Fail() {
		t.Fatalf("pool.New: %s", kind)
	}
	if kind := fw.SendMessage(msg); kind.Fail() {
		t.Fatalf("SendMessage: %s", kind)
	}
	if !msg.DirectTx {
		t.Fatal("expected DirectTx to be set")
	}
	if fw.SendQueue.Len() != 1 {
		t.Fatalf("SendQueue.Len() = %d, want 1", fw.SendQueue.Len())
	}
}

// compressedTransitPayload builds a LOWPAN_IPHC-compressed UDP datagram
// as MeshTransit would receive it: macSrc/macDst mirror the mesh
// header's source/destination short addresses.
func compressedTransitPayload(t *testing.T, h *MeshHeader, dst [16]byte) []byte {
	t.Helper()
	macSrc := mac.Address{Mode: mac.AddrModeShort, Short: h.Source}
	macDst := mac.Address{Mode: mac.AddrModeShort, Short: h.Destination}
	hdr := &lowpan.Header{
		NextHeader: lowpan.NextHeaderUDP,
		HopLimit:   64,
		Src:        [16]byte{0x20, 0x01, 0x0d, 0xb8},
		Dst:        dst,
		UDP:        &lowpan.UDPHeader{SrcPort: 1, DstPort: 2, Checksum: 0, Payload: []byte("x")},
	}
	wire, kind := lowpan.Compress(hdr, macSrc, macDst, lowpan.NewContextTable())
	if kind.Fail() {
		t.Fatalf("Compress: %s", kind)
	}
	return wire
}

func newTransitMessage(t *testing.T, pool *buffer.Pool, wire []byte) *buffer.Message {
	t.Helper()
	msg, kind := pool.New(buffer.TypeLowpan6, 0)
	if kind.Fail() {
		t.Fatalf("pool.New: %s", kind)
	}
	if kind := msg.SetLength(len(wire)); kind.Fail() {
		t.Fatalf("SetLength: %s", kind)
	}
	msg.Write(0, len(wire), wire)
	return msg
}

func TestMeshTransitForwardsWhenReachable(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	neighbors := neighbor.NewTable(4)
	entry, kind := neighbors.Add(0x3000, [8]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if kind.Fail() {
		t.Fatalf("neighbors.Add: %s", kind)
	}
	entry.State = neighbor.StateValid

	mle := &fakeMLE{state: mleiface.StateRouter, nextHop: map[uint16]uint16{0x1000: 0x3000}}
	fw := New(pool, 0x2000, true, 1, mle, &fakeResolver{}, &fakeNetData{onMesh: true}, neighbors)

	h := &MeshHeader{HopsLeft: 5, Source: 0x4000, Destination: 0x1000}
	dst := [16]byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	msg := newTransitMessage(t, pool, compressedTransitPayload(t, h, dst))

	if kind := fw.MeshTransit(h, msg, 0x4000); kind.Fail() {
		t.Fatalf("MeshTransit: %s", kind)
	}
	if h.HopsLeft != 4 {
		t.Fatalf("HopsLeft = %d, want 4", h.HopsLeft)
	}
	if fw.SendQueue.Len() != 1 {
		t.Fatalf("SendQueue.Len() = %d, want 1", fw.SendQueue.Len())
	}
	if mle.linkRejectedTo != 0 {
		t.Fatalf("unexpected link reject to %#x", mle.linkRejectedTo)
	}
}

func TestMeshTransitRejectsAndDropsWhenUnreachable(t *testing.T) {
	pool := buffer.NewPool(4, 64)
	neighbors := neighbor.NewTable(4)
	mle := &fakeMLE{state: mleiface.StateRouter}
	fw := New(pool, 0x2000, true, 1, mle, &fakeResolver{}, &fakeNetData{onMesh: false}, neighbors)

	h := &MeshHeader{HopsLeft: 5, Source: 0x4000, Destination: 0x1000}
	dst := [16]byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	msg := newTransitMessage(t, pool, compressedTransitPayload(t, h, dst))

	if kind := fw.MeshTransit(h, msg, 0x4000); kind != corerr.Drop {
		t.Fatalf("MeshTransit kind = %s, want Drop", kind)
	}
	if fw.SendQueue.Len() != 0 {
		t.Fatalf("SendQueue.Len() = %d, want 0", fw.SendQueue.Len())
	}
	if mle.linkRejectedTo != 0x4000 {
		t.Fatalf("linkRejectedTo = %#x, want 0x4000", mle.linkRejectedTo)
	}
}
