// Package forwarder implements the Mesh Forwarder: the send/resolving
// queues, mesh-header insertion, route selection, fragmentation and
// reassembly, and sleepy-child polling (spec.md §4.5).
package forwarder

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
)

// meshDispatch is the top two bits identifying a mesh header among
// 6LoWPAN dispatch bytes (spec.md §6, "Mesh header 0b10xxxxxx").
const meshDispatch = 0x80

// MeshHeader is inserted ahead of a compressed IPv6 payload whenever
// the chosen mesh destination is not a direct neighbor (spec.md §4.5).
type MeshHeader struct {
	HopsLeft    uint8
	Source      uint16
	Destination uint16
}

// EncodeMeshHeader packs h into its 5-byte wire form: a dispatch byte
// carrying hopsLeft in the low 4 bits, followed by the 16-bit source
// and destination short addresses.
func EncodeMeshHeader(h *MeshHeader) []byte {
	out := make([]byte, 5)
	out[0] = meshDispatch | (h.HopsLeft & 0x0f)
	binary.BigEndian.PutUint16(out[1:3], h.Source)
	binary.BigEndian.PutUint16(out[3:5], h.Destination)
	return out
}

// DecodeMeshHeader reverses EncodeMeshHeader.
func DecodeMeshHeader(data []byte) (*MeshHeader, int, corerr.Kind) {
	if len(data) < 5 || data[0]&0xc0 != meshDispatch {
		return nil, 0, corerr.Parse
	}
	h := &MeshHeader{
		HopsLeft:    data[0] & 0x0f,
		Source:      binary.BigEndian.Uint16(data[1:3]),
		Destination: binary.BigEndian.Uint16(data[3:5]),
	}
	return h, 5, corerr.None
}
