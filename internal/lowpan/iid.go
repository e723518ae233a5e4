// Package lowpan implements 6LoWPAN IPv6 header compression/decompression
// (IPHC), extension-header and UDP compression, and the context table
// compression depends on (spec.md §4.4).
package lowpan

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/mac"
)

// ComputeIID derives the 8-byte interface identifier for a MAC address:
// for a short address, `00:00:00:ff:fe:00:AA:AA` with AA:AA the short
// address; for an extended address, the address itself with bit 6 of the
// first byte (the universal/local bit) toggled. Shared, pure function
// used by both compression and decompression (spec.md §4.4).
func ComputeIID(addr mac.Address) [8]byte {
	var iid [8]byte
	switch addr.Mode {
	case mac.AddrModeShort:
		iid[3] = 0xff
		iid[4] = 0xfe
		binary.BigEndian.PutUint16(iid[6:8], addr.Short)
	case mac.AddrModeExtended:
		iid = addr.Extended
		iid[0] ^= 0x02
	}
	return iid
}
