package netdata

import (
	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/corerr"
)

func prefixByteLen(prefixLen int) int {
	return (prefixLen + 7) / 8
}

// EncodeRegistration serializes entries as a flat sequence of Prefix
// TLVs (spec.md §3's TLV nesting, reusing internal/coap's generic
// type|length|value codec for both the outer Prefix TLVs and their
// nested HasRoute/BorderRouter/Context sub-TLVs).
func EncodeRegistration(entries []PrefixEntry) ([]byte, corerr.Kind) {
	outer := make([]coap.TLV, 0, len(entries))
	for _, e := range entries {
		var sub []coap.TLV
		for _, hr := range e.HasRoute {
			sub = append(sub, coap.TLV{
				Type:   SubTLVHasRoute,
				Stable: hr.Stable,
				Value:  []byte{byte(hr.Rloc16 >> 8), byte(hr.Rloc16), byte(hr.Preference)},
			})
		}
		for _, br := range e.BorderRouter {
			valid := byte(0)
			if br.Valid {
				valid = 1
			}
			sub = append(sub, coap.TLV{
				Type:   SubTLVBorderRouter,
				Stable: br.Stable,
				Value:  []byte{byte(br.Rloc16 >> 8), byte(br.Rloc16), byte(br.Flags >> 8), byte(br.Flags), valid},
			})
		}
		if e.Context != nil {
			compress := byte(0)
			if e.Context.Compress {
				compress = 1
			}
			sub = append(sub, coap.TLV{
				Type:   SubTLVContext,
				Stable: e.Context.Stable,
				Value:  []byte{e.Context.ContextID, byte(e.Context.ContextLength), compress},
			})
		}
		nested, kind := coap.EncodeTLVs(sub)
		if kind.Fail() {
			return nil, kind
		}

		plen := prefixByteLen(e.PrefixLen)
		value := make([]byte, 0, 2+plen+len(nested))
		value = append(value, e.DomainID, byte(e.PrefixLen))
		value = append(value, e.Prefix[:plen]...)
		value = append(value, nested...)

		outer = append(outer, coap.TLV{Type: SubTLVPrefix, Stable: e.Stable, Value: value})
	}
	return coap.EncodeTLVs(outer)
}

// DecodeRegistration is the inverse of EncodeRegistration.
func DecodeRegistration(data []byte) ([]PrefixEntry, corerr.Kind) {
	outer, kind := coap.ParseTLVs(data)
	if kind.Fail() {
		return nil, kind
	}

	entries := make([]PrefixEntry, 0, len(outer))
	for _, t := range outer {
		if t.Type != SubTLVPrefix || len(t.Value) < 2 {
			return nil, corerr.Parse
		}
		domainID := t.Value[0]
		prefixLen := int(t.Value[1])
		plen := prefixByteLen(prefixLen)
		if len(t.Value) < 2+plen {
			return nil, corerr.Parse
		}
		var prefix [16]byte
		copy(prefix[:plen], t.Value[2:2+plen])

		sub, kind := coap.ParseTLVs(t.Value[2+plen:])
		if kind.Fail() {
			return nil, kind
		}

		e := PrefixEntry{DomainID: domainID, Prefix: prefix, PrefixLen: prefixLen, Stable: t.Stable}
		for _, s := range sub {
			switch s.Type {
			case SubTLVHasRoute:
				if len(s.Value) != 3 {
					return nil, corerr.Parse
				}
				e.HasRoute = append(e.HasRoute, HasRouteEntry{
					Rloc16:     uint16(s.Value[0])<<8 | uint16(s.Value[1]),
					Preference: int8(s.Value[2]),
					Stable:     s.Stable,
				})
			case SubTLVBorderRouter:
				if len(s.Value) != 5 {
					return nil, corerr.Parse
				}
				e.BorderRouter = append(e.BorderRouter, BorderRouterEntry{
					Rloc16: uint16(s.Value[0])<<8 | uint16(s.Value[1]),
					Flags:  uint16(s.Value[2])<<8 | uint16(s.Value[3]),
					Valid:  s.Value[4] != 0,
					Stable: s.Stable,
				})
			case SubTLVContext:
				if len(s.Value) != 3 {
					return nil, corerr.Parse
				}
				e.Context = &ContextSubTLV{
					ContextID:     s.Value[0],
					ContextLength: int(s.Value[1]),
					Compress:      s.Value[2] != 0,
					Stable:        s.Stable,
				}
			}
		}
		entries = append(entries, e)
	}
	return entries, corerr.None
}
