package lowpan

import (
	"bytes"
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/mac"
)

// IPv6 next-header values the codec compresses specially (spec.md §4.4).
const (
	NextHeaderHopByHop = 0
	NextHeaderUDP      = 17
)

// linkLocalPrefix is fe80::/64, the implicit prefix for stateless (no
// context) address compression.
var linkLocalPrefix = [16]byte{0xfe, 0x80}

// Header is the subset of an IPv6 header the 6LoWPAN codec compresses.
// NextHeader/rest-of-packet bytes beyond what UDP carries are left in
// Payload uncompressed.
type Header struct {
	TrafficClass uint8  // full 8-bit TC (DSCP+ECN), simplified vs. RFC6282's split encoding
	FlowLabel    uint32 // low 20 bits significant
	NextHeader   uint8
	HopLimit     uint8
	Src          [16]byte
	Dst          [16]byte

	// UDP is set when NextHeader == NextHeaderUDP; its Payload field
	// carries the application payload bytes.
	UDP *UDPHeader

	// Payload carries the datagram bytes following NextHeader when
	// NextHeader is not UDP (e.g. ICMPv6). Unused when UDP != nil.
	Payload []byte
}

// Hop-limit compression codes. This is a from-scratch (non-RFC) 2-bit
// assignment chosen so bit pattern "10" denotes "inline", matching the
// worked compression example (spec.md §8 scenario 4).
const (
	hlimOne       = 0
	hlimFull      = 1
	hlimInline    = 2
	hlimSixtyFour = 3
)

func encodeHLIM(hopLimit uint8) (code uint8, inlineByte bool) {
	switch hopLimit {
	case 1:
		return hlimOne, false
	case 255:
		return hlimFull, false
	case 64:
		return hlimSixtyFour, false
	default:
		return hlimInline, true
	}
}

func decodeHLIM(code uint8) (value uint8, inline bool) {
	switch code {
	case hlimOne:
		return 1, false
	case hlimFull:
		return 255, false
	case hlimSixtyFour:
		return 64, false
	default:
		return 0, true
	}
}

// Compress produces the LOWPAN_IPHC-compressed form of h, given the MAC
// addresses the frame carrying it will use (spec.md §4.4).
func Compress(h *Header, macSrc, macDst mac.Address, ctxTable *ContextTable) ([]byte, corerr.Kind) {
	var out bytes.Buffer

	tcOmit := h.TrafficClass&0xf0 == 0
	flOmit := h.FlowLabel&0xfffff == 0
	tf := byte(0)
	if tcOmit {
		tf |= 0x2
	}
	if flOmit {
		tf |= 0x1
	}

	nhCompressed := h.NextHeader == NextHeaderHopByHop || h.NextHeader == NextHeaderUDP
	hlimCode, hlimInlineByte := encodeHLIM(h.HopLimit)

	byte0 := byte(0x60) // dispatch 011 00000
	byte0 |= tf << 3
	if !nhCompressed {
		byte0 |= 0x04
	}
	byte0 |= hlimCode

	srcIID := ComputeIID(macSrc)
	dstIID := ComputeIID(macDst)

	srcCtxID, srcSAC, srcSAM, srcPayload := compressUnicast(h.Src, srcIID, ctxTable)
	dstCtxID, dstM, dstDAC, dstDAM, dstPayload := compressDst(h.Dst, dstIID, ctxTable)

	byte1 := byte(0)
	cidByte := byte(0)
	haveCID := (srcSAC && srcCtxID != 0) || (dstDAC && dstCtxID != 0)
	if haveCID {
		byte1 |= 0x80
		cidByte = (srcCtxID << 4) | dstCtxID
	}
	if srcSAC {
		byte1 |= 0x40
	}
	byte1 |= srcSAM << 4
	if dstM {
		byte1 |= 0x08
	}
	if dstDAC {
		byte1 |= 0x04
	}
	byte1 |= dstDAM

	out.WriteByte(byte0)
	out.WriteByte(byte1)
	if haveCID {
		out.WriteByte(cidByte)
	}

	if !tcOmit || !flOmit {
		writeTCFL(&out, h.TrafficClass, h.FlowLabel, tcOmit, flOmit)
	}
	if !nhCompressed {
		out.WriteByte(h.NextHeader)
	}
	if hlimInlineByte {
		out.WriteByte(h.HopLimit)
	}
	out.Write(srcPayload)
	out.Write(dstPayload)

	if h.NextHeader == NextHeaderUDP {
		if h.UDP == nil {
			return nil, corerr.InvalidArgs
		}
		udpBytes, kind := compressUDP(h.UDP)
		if kind.Fail() {
			return nil, kind
		}
		out.Write(udpBytes)
	} else if h.NextHeader == NextHeaderHopByHop {
		out.Write(h.Payload)
	} else {
		out.Write(h.Payload)
	}

	return out.Bytes(), corerr.None
}

func writeTCFL(out *bytes.Buffer, tc uint8, fl uint32, tcOmit, flOmit bool) {
	if !tcOmit {
		out.WriteByte(tc)
	}
	if !flOmit {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], fl&0xfffff)
		out.Write(buf[1:4])
	}
}

// Decompress reverses Compress, given the same MAC addresses and context
// table (spec.md §4.4, §8 scenario: Decompress(Compress(h)) == h for
// representable headers whose compression contexts are known).
func Decompress(data []byte, macSrc, macDst mac.Address, ctxTable *ContextTable) (*Header, int, corerr.Kind) {
	if len(data) < 2 {
		return nil, 0, corerr.Parse
	}
	byte0 := data[0]
	byte1 := data[1]
	off := 2

	if byte0>>5 != 0x3 {
		return nil, 0, corerr.Parse
	}
	tcOmit := byte0&0x10 != 0
	flOmit := byte0&0x08 != 0
	nhInline := byte0&0x04 != 0
	hlimCode := byte0 & 0x03

	haveCID := byte1&0x80 != 0
	srcSAC := byte1&0x40 != 0
	srcSAM := (byte1 >> 4) & 0x03
	dstM := byte1&0x08 != 0
	dstDAC := byte1&0x04 != 0
	dstDAM := byte1 & 0x03

	var srcCtxID, dstCtxID uint8
	if haveCID {
		if off >= len(data) {
			return nil, 0, corerr.Parse
		}
		cidByte := data[off]
		off++
		srcCtxID = cidByte >> 4
		dstCtxID = cidByte & 0x0f
	}

	h := &Header{}

	if !tcOmit {
		if off >= len(data) {
			return nil, 0, corerr.Parse
		}
		h.TrafficClass = data[off]
		off++
	}
	if !flOmit {
		if off+3 > len(data) {
			return nil, 0, corerr.Parse
		}
		var buf [4]byte
		copy(buf[1:4], data[off:off+3])
		h.FlowLabel = binary.BigEndian.Uint32(buf[:]) & 0xfffff
		off += 3
	}

	if nhInline {
		if off >= len(data) {
			return nil, 0, corerr.Parse
		}
		h.NextHeader = data[off]
		off++
	}

	hlimValue, hlimInline := decodeHLIM(hlimCode)
	if hlimInline {
		if off >= len(data) {
			return nil, 0, corerr.Parse
		}
		h.HopLimit = data[off]
		off++
	} else {
		h.HopLimit = hlimValue
	}

	srcIID := ComputeIID(macSrc)
	dstIID := ComputeIID(macDst)

	src, n, kind := decompressUnicast(data[off:], srcSAC, srcSAM, srcCtxID, srcIID, ctxTable)
	if kind.Fail() {
		return nil, 0, kind
	}
	h.Src = src
	off += n

	dst, n, kind := decompressDst(data[off:], dstM, dstDAC, dstDAM, dstCtxID, dstIID, ctxTable)
	if kind.Fail() {
		return nil, 0, kind
	}
	h.Dst = dst
	off += n

	if !nhInline {
		// Next header was compressed: must be HopByHop or UDP. Only
		// UDP NHC decoding is implemented; HopByHop NHC is left for
		// a future extension-header pass (see ext.go).
		h.NextHeader = NextHeaderUDP
		udp, n, kind := decompressUDP(data[off:])
		if kind.Fail() {
			return nil, 0, kind
		}
		h.UDP = udp
		off += n
	} else {
		h.Payload = append([]byte(nil), data[off:]...)
		off = len(data)
	}

	return h, off, corerr.None
}
