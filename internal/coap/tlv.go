package coap

import "github.com/hwipl/thread-core/internal/corerr"

// Thread TLV type numbers the core reads or writes (spec.md §6). On the
// wire the type occupies the upper seven bits of the type byte and the
// low bit is the stable flag, shared with the network-data sub-TLVs
// defined in internal/netdata.
const (
	TLVTarget              = 0
	TLVExtMacAddress       = 1
	TLVRloc16              = 2
	TLVMeshLocalEid        = 3
	TLVStatus              = 4
	TLVLastTransactionTime = 6
)

// TLV is a single type(1)|length(1)|value Thread TLV.
type TLV struct {
	Type   uint8
	Stable bool
	Value  []byte
}

// typeByte packs Type and the stable bit into the wire type octet.
func (t TLV) typeByte() byte {
	b := t.Type << 1
	if t.Stable {
		b |= 1
	}
	return b
}

// Encode appends t's wire form to out.
func (t TLV) Encode(out []byte) ([]byte, corerr.Kind) {
	if len(t.Value) > 0xff {
		return nil, corerr.InvalidArgs
	}
	out = append(out, t.typeByte(), byte(len(t.Value)))
	out = append(out, t.Value...)
	return out, corerr.None
}

// EncodeTLVs concatenates a list of TLVs, as carried in a CoAP
// payload.
func EncodeTLVs(tlvs []TLV) ([]byte, corerr.Kind) {
	var out []byte
	for _, t := range tlvs {
		var kind corerr.Kind
		out, kind = t.Encode(out)
		if kind.Fail() {
			return nil, kind
		}
	}
	return out, corerr.None
}

// ParseTLV reads a single TLV from the front of data.
func ParseTLV(data []byte) (TLV, int, corerr.Kind) {
	if len(data) < 2 {
		return TLV{}, 0, corerr.Parse
	}
	length := int(data[1])
	if len(data) < 2+length {
		return TLV{}, 0, corerr.Parse
	}
	t := TLV{
		Type:   data[0] >> 1,
		Stable: data[0]&1 != 0,
		Value:  append([]byte(nil), data[2:2+length]...),
	}
	return t, 2 + length, corerr.None
}

// ParseTLVs splits an entire payload into its constituent TLVs.
func ParseTLVs(data []byte) ([]TLV, corerr.Kind) {
	var out []TLV
	for len(data) > 0 {
		t, n, kind := ParseTLV(data)
		if kind.Fail() {
			return nil, kind
		}
		out = append(out, t)
		data = data[n:]
	}
	return out, corerr.None
}

// Find returns the first TLV of the given type, if present.
func Find(tlvs []TLV, typ uint8) (TLV, bool) {
	for _, t := range tlvs {
		if t.Type == typ {
			return t, true
		}
	}
	return TLV{}, false
}
