package lowpan

import "github.com/hwipl/thread-core/internal/corerr"

// Extension-header dispatch byte layout (spec.md §4.4): top 3 bits are
// the 0xE0 dispatch, bit 4 flags that the extension header's own next
// header is itself compressed, and the low 3 bits carry the extension
// header id.
const (
	extHdrBase  = 0xe0
	extHdrNHBit = 0x10
	extHdrEIDMask = 0x07
)

// ExtHeader is a compressed IPv6 extension header (e.g. Hop-by-Hop
// Options) carried between the IPHC header and the compressed/inline
// next header (spec.md §4.4).
type ExtHeader struct {
	EID            uint8
	NextHeader     uint8
	NextCompressed bool
	Option         []byte
}

// CompressExtHeader encodes e: dispatch byte, next-header byte (unless
// NextCompressed), length byte, option payload.
func CompressExtHeader(e *ExtHeader) []byte {
	dispatch := byte(extHdrBase) | (e.EID & extHdrEIDMask)
	if e.NextCompressed {
		dispatch |= extHdrNHBit
	}

	out := make([]byte, 0, 3+len(e.Option))
	out = append(out, dispatch)
	if !e.NextCompressed {
		out = append(out, e.NextHeader)
	}
	out = append(out, byte(len(e.Option)))
	out = append(out, e.Option...)
	return out
}

// ParseExtHeader reverses CompressExtHeader.
func ParseExtHeader(data []byte) (*ExtHeader, int, corerr.Kind) {
	if len(data) < 1 || data[0]&0xe0 != extHdrBase {
		return nil, 0, corerr.Parse
	}
	e := &ExtHeader{
		EID:            data[0] & extHdrEIDMask,
		NextCompressed: data[0]&extHdrNHBit != 0,
	}
	off := 1
	if !e.NextCompressed {
		if off >= len(data) {
			return nil, 0, corerr.Parse
		}
		e.NextHeader = data[off]
		off++
	}
	if off >= len(data) {
		return nil, 0, corerr.Parse
	}
	optLen := int(data[off])
	off++
	if off+optLen > len(data) {
		return nil, 0, corerr.Parse
	}
	e.Option = append([]byte(nil), data[off:off+optLen]...)
	off += optLen
	return e, off, corerr.None
}
