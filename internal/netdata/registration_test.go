package netdata

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRegistrationRoundTrip(t *testing.T) {
	entries := []PrefixEntry{
		{
			DomainID:  0,
			Prefix:    [16]byte{0x20, 0x01, 0x0d, 0xb8},
			PrefixLen: 32,
			Stable:    true,
			HasRoute:  []HasRouteEntry{{Rloc16: 0x1000, Preference: 1, Stable: true}},
			BorderRouter: []BorderRouterEntry{
				{Rloc16: 0x1000, Flags: 0x0020, Valid: true, Stable: true},
			},
			Context: &ContextSubTLV{ContextID: 0, ContextLength: 64, Compress: true, Stable: true},
		},
	}

	wire, kind := EncodeRegistration(entries)
	if kind.Fail() {
		t.Fatalf("EncodeRegistration: %s", kind)
	}

	got, kind := DecodeRegistration(wire)
	if kind.Fail() {
		t.Fatalf("DecodeRegistration: %s", kind)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, entries)
	}
}

func TestDecodeRegistrationRejectsTruncatedPayload(t *testing.T) {
	if _, kind := DecodeRegistration([]byte{SubTLVPrefix << 1, 5, 0, 32, 0xff}); !kind.Fail() {
		t.Fatal("DecodeRegistration accepted a truncated prefix TLV")
	}
}
