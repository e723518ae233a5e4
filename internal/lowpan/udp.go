package lowpan

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
)

// UDPHeader is a compressible UDP datagram (spec.md §4.4).
type UDPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Checksum uint16
	Payload  []byte
}

// portBase and portMask bound the 4-bit compressible port range
// 0xf0b0..0xf0bf (spec.md §4.4).
const (
	portBase = 0xf0b0
	portMask = 0xfff0
)

func portCompressible(port uint16) bool {
	return port&portMask == portBase
}

// compressUDP emits the UDP NHC dispatch byte (0xF0 | checksum-elided |
// port-compression), the compressed or inline ports, the checksum
// (always carried uncompressed per spec.md §4.4), and the payload.
func compressUDP(u *UDPHeader) ([]byte, corerr.Kind) {
	srcC := portCompressible(u.SrcPort)
	dstC := portCompressible(u.DstPort)

	dispatch := byte(0xf0)
	var pp byte
	switch {
	case srcC && dstC:
		pp = 0x3
	case dstC:
		pp = 0x1
	case srcC:
		pp = 0x2
	default:
		pp = 0x0
	}
	dispatch |= pp

	out := make([]byte, 0, 9+len(u.Payload))
	out = append(out, dispatch)

	switch pp {
	case 0x3:
		out = append(out, byte(u.SrcPort&0xf)<<4|byte(u.DstPort&0xf))
	case 0x1:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], u.SrcPort)
		out = append(out, buf[0], buf[1], byte(u.DstPort&0xf))
	case 0x2:
		var buf [2]byte
		out = append(out, byte(u.SrcPort&0xf))
		binary.BigEndian.PutUint16(buf[:], u.DstPort)
		out = append(out, buf[0], buf[1])
	default:
		var buf [4]byte
		binary.BigEndian.PutUint16(buf[0:2], u.SrcPort)
		binary.BigEndian.PutUint16(buf[2:4], u.DstPort)
		out = append(out, buf[:]...)
	}

	var cksum [2]byte
	binary.BigEndian.PutUint16(cksum[:], u.Checksum)
	out = append(out, cksum[:]...)
	out = append(out, u.Payload...)
	return out, corerr.None
}

// decompressUDP reverses compressUDP.
func decompressUDP(data []byte) (*UDPHeader, int, corerr.Kind) {
	if len(data) < 1 {
		return nil, 0, corerr.Parse
	}
	dispatch := data[0]
	if dispatch&0xfc != 0xf0 {
		return nil, 0, corerr.Parse
	}
	pp := dispatch & 0x3
	off := 1
	u := &UDPHeader{}

	switch pp {
	case 0x3:
		if len(data) < off+1 {
			return nil, 0, corerr.Parse
		}
		b := data[off]
		off++
		u.SrcPort = portBase | uint16(b>>4)
		u.DstPort = portBase | uint16(b&0xf)
	case 0x1:
		if len(data) < off+3 {
			return nil, 0, corerr.Parse
		}
		u.SrcPort = binary.BigEndian.Uint16(data[off : off+2])
		off += 2
		u.DstPort = portBase | uint16(data[off])
		off++
	case 0x2:
		if len(data) < off+3 {
			return nil, 0, corerr.Parse
		}
		u.SrcPort = portBase | uint16(data[off])
		off++
		u.DstPort = binary.BigEndian.Uint16(data[off : off+2])
		off += 2
	default:
		if len(data) < off+4 {
			return nil, 0, corerr.Parse
		}
		u.SrcPort = binary.BigEndian.Uint16(data[off : off+2])
		u.DstPort = binary.BigEndian.Uint16(data[off+2 : off+4])
		off += 4
	}

	if len(data) < off+2 {
		return nil, 0, corerr.Parse
	}
	u.Checksum = binary.BigEndian.Uint16(data[off : off+2])
	off += 2

	u.Payload = append([]byte(nil), data[off:]...)
	return u, len(data), corerr.None
}
