package forwarder

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
)

// Fragment dispatch bytes (spec.md §6): 0xC0 first, 0xE0 subsequent.
const (
	fragFirstDispatch      = 0xc0
	fragSubsequentDispatch = 0xe0
	fragDatagramSizeMask   = 0x07ff
)

// FirstFragmentHeaderLen and SubsequentFragmentHeaderLen are the fixed
// header sizes spec.md §4.5 specifies.
const (
	FirstFragmentHeaderLen      = 4
	SubsequentFragmentHeaderLen = 5
)

// FirstFragment is the header prepended to a datagram's first fragment.
type FirstFragment struct {
	TotalSize int
	Tag       uint16
}

// EncodeFirstFragment packs f into its 4-byte wire form.
func EncodeFirstFragment(f *FirstFragment) []byte {
	out := make([]byte, FirstFragmentHeaderLen)
	size := uint16(f.TotalSize) & fragDatagramSizeMask
	out[0] = fragFirstDispatch | byte(size>>8)
	out[1] = byte(size)
	binary.BigEndian.PutUint16(out[2:4], f.Tag)
	return out
}

// DecodeFirstFragment reverses EncodeFirstFragment.
func DecodeFirstFragment(data []byte) (*FirstFragment, int, corerr.Kind) {
	if len(data) < FirstFragmentHeaderLen || data[0]&0xf8 != fragFirstDispatch {
		return nil, 0, corerr.Parse
	}
	size := int(data[0]&0x07)<<8 | int(data[1])
	f := &FirstFragment{
		TotalSize: size,
		Tag:       binary.BigEndian.Uint16(data[2:4]),
	}
	return f, FirstFragmentHeaderLen, corerr.None
}

// SubsequentFragment is the header prepended to every fragment after
// the first; OffsetEighths is the byte offset into the reassembled
// datagram divided by 8 (spec.md §4.5).
type SubsequentFragment struct {
	TotalSize     int
	Tag           uint16
	OffsetEighths uint8
}

// EncodeSubsequentFragment packs f into its 5-byte wire form.
func EncodeSubsequentFragment(f *SubsequentFragment) []byte {
	out := make([]byte, SubsequentFragmentHeaderLen)
	size := uint16(f.TotalSize) & fragDatagramSizeMask
	out[0] = fragSubsequentDispatch | byte(size>>8)
	out[1] = byte(size)
	binary.BigEndian.PutUint16(out[2:4], f.Tag)
	out[4] = f.OffsetEighths
	return out
}

// DecodeSubsequentFragment reverses EncodeSubsequentFragment.
func DecodeSubsequentFragment(data []byte) (*SubsequentFragment, int, corerr.Kind) {
	if len(data) < SubsequentFragmentHeaderLen || data[0]&0xf8 != fragSubsequentDispatch {
		return nil, 0, corerr.Parse
	}
	size := int(data[0]&0x07)<<8 | int(data[1])
	f := &SubsequentFragment{
		TotalSize:     size,
		Tag:           binary.BigEndian.Uint16(data[2:4]),
		OffsetEighths: data[4],
	}
	return f, SubsequentFragmentHeaderLen, corerr.None
}

// TagAllocator is the forwarder's monotonically increasing per-forwarder
// datagram-tag counter, seeded from the random source (spec.md §4.5).
type TagAllocator struct {
	next uint16
}

// NewTagAllocator seeds the allocator.
func NewTagAllocator(seed uint16) *TagAllocator {
	return &TagAllocator{next: seed}
}

// Next returns the next datagram tag.
func (a *TagAllocator) Next() uint16 {
	a.next++
	return a.next
}

// FragmentPayload splits payload into MAC-frame-sized fragments, each
// rounded down to a multiple of 8 bytes except the final one (spec.md
// §4.5, "fill the frame to a multiple-of-8 boundary"). maxFirst and
// maxRest are the usable payload capacities after the fragment's own
// header and any MAC/mesh framing overhead.
func FragmentPayload(payload []byte, tag uint16, maxFirst, maxRest int) [][]byte {
	if len(payload) <= maxFirst {
		return [][]byte{append(EncodeFirstFragment(&FirstFragment{TotalSize: len(payload), Tag: tag}), payload...)}
	}

	firstLen := (maxFirst / 8) * 8
	var frags [][]byte
	frags = append(frags, append(EncodeFirstFragment(&FirstFragment{TotalSize: len(payload), Tag: tag}), payload[:firstLen]...))

	offset := firstLen
	restCap := (maxRest / 8) * 8
	for offset < len(payload) {
		n := len(payload) - offset
		if n > restCap {
			n = restCap
		}
		hdr := EncodeSubsequentFragment(&SubsequentFragment{
			TotalSize:     len(payload),
			Tag:           tag,
			OffsetEighths: uint8(offset / 8),
		})
		frags = append(frags, append(hdr, payload[offset:offset+n]...))
		offset += n
	}
	return frags
}
