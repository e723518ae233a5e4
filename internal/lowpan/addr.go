package lowpan

import "github.com/hwipl/thread-core/internal/corerr"

// isShortIIDPattern reports whether an 8-byte IID has the
// 00:00:00:ff:fe:00:xx:xx shape a 16-bit short address derives (spec.md
// §4.4).
func isShortIIDPattern(iid []byte) bool {
	return iid[0] == 0 && iid[1] == 0 && iid[2] == 0 && iid[3] == 0xff && iid[4] == 0xfe && iid[5] == 0
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// compressUnicast implements the source-address compression rules of
// spec.md §4.4: unspecified address, IID-derived elision (mode 3),
// short-address-derived elision (mode 2), or 64-bit suffix (mode 1),
// against either a context prefix (stateful) or the implicit link-local
// prefix (stateless).
func compressUnicast(addr [16]byte, iid [8]byte, ctxTable *ContextTable) (ctxID uint8, sac bool, sam uint8, payload []byte) {
	if addr == ([16]byte{}) {
		return 0, true, 0, nil
	}

	cid, ctx, found := ctxTable.FindForAddress(addr)
	prefix := linkLocalPrefix
	prefixLen := 64
	useContext := false
	if found && ctx.Compress {
		prefix = ctx.Prefix
		prefixLen = ctx.PrefixLen
		useContext = true
	}
	if !matchBits(addr, prefix, prefixLen) {
		return 0, false, 0, append([]byte(nil), addr[:]...)
	}

	switch {
	case equal8(addr[8:16], iid):
		sam = 3
	case isShortIIDPattern(addr[8:16]):
		sam = 2
		payload = append([]byte(nil), addr[14:16]...)
	default:
		sam = 1
		payload = append([]byte(nil), addr[8:16]...)
	}

	if useContext {
		return cid, true, sam, payload
	}
	return 0, false, sam, payload
}

func equal8(b []byte, iid [8]byte) bool {
	for i := 0; i < 8; i++ {
		if b[i] != iid[i] {
			return false
		}
	}
	return true
}

// decompressUnicast reverses compressUnicast.
func decompressUnicast(data []byte, sac bool, sam uint8, ctxID uint8, iid [8]byte, ctxTable *ContextTable) (addr [16]byte, consumed int, kind corerr.Kind) {
	if sac && sam == 0 {
		return addr, 0, corerr.None // unspecified "::", no context involved
	}
	var prefix [16]byte
	if sac {
		ctx, found := ctxTable.Get(ctxID)
		if !found {
			return addr, 0, corerr.Parse
		}
		prefix = ctx.Prefix
	} else {
		prefix = linkLocalPrefix
	}

	switch sam {
	case 0:
		if sac {
			return addr, 0, corerr.None // unspecified "::"
		}
		if len(data) < 16 {
			return addr, 0, corerr.Parse
		}
		copy(addr[:], data[:16])
		return addr, 16, corerr.None
	case 1:
		if len(data) < 8 {
			return addr, 0, corerr.Parse
		}
		copy(addr[:8], prefix[:8])
		copy(addr[8:16], data[:8])
		return addr, 8, corerr.None
	case 2:
		if len(data) < 2 {
			return addr, 0, corerr.Parse
		}
		copy(addr[:8], prefix[:8])
		addr[11] = 0xff
		addr[12] = 0xfe
		copy(addr[14:16], data[:2])
		return addr, 2, corerr.None
	case 3:
		copy(addr[:8], prefix[:8])
		copy(addr[8:16], iid[:])
		return addr, 0, corerr.None
	}
	return addr, 0, corerr.Parse
}

// compressDst compresses a destination address, handling both unicast
// (delegated to compressUnicast) and the multicast compact forms of
// spec.md §4.4.
func compressDst(addr [16]byte, iid [8]byte, ctxTable *ContextTable) (ctxID uint8, m bool, dac bool, dam uint8, payload []byte) {
	if addr[0] != 0xff {
		ctxID, dac, dam, payload = compressUnicast(addr, iid, ctxTable)
		return ctxID, false, dac, dam, payload
	}

	m = true
	switch {
	case addr[1] == 0x02 && allZero(addr[2:15]):
		return 0, true, false, 3, []byte{addr[15]}
	case allZero(addr[2:13]):
		return 0, true, false, 2, []byte{addr[1], addr[13], addr[14], addr[15]}
	case allZero(addr[2:11]):
		return 0, true, false, 1, []byte{addr[1], addr[11], addr[12], addr[13], addr[14], addr[15]}
	default:
		return 0, true, false, 0, append([]byte(nil), addr[:]...)
	}
}

// decompressDst reverses compressDst.
func decompressDst(data []byte, m, dac bool, dam uint8, ctxID uint8, iid [8]byte, ctxTable *ContextTable) (addr [16]byte, consumed int, kind corerr.Kind) {
	if !m {
		return decompressUnicast(data, dac, dam, ctxID, iid, ctxTable)
	}

	switch dam {
	case 3:
		if len(data) < 1 {
			return addr, 0, corerr.Parse
		}
		addr[0], addr[1] = 0xff, 0x02
		addr[15] = data[0]
		return addr, 1, corerr.None
	case 2:
		if len(data) < 4 {
			return addr, 0, corerr.Parse
		}
		addr[0], addr[1] = 0xff, data[0]
		addr[13], addr[14], addr[15] = data[1], data[2], data[3]
		return addr, 4, corerr.None
	case 1:
		if len(data) < 6 {
			return addr, 0, corerr.Parse
		}
		addr[0], addr[1] = 0xff, data[0]
		copy(addr[11:16], data[1:6])
		return addr, 6, corerr.None
	case 0:
		if len(data) < 16 {
			return addr, 0, corerr.Parse
		}
		copy(addr[:], data[:16])
		return addr, 16, corerr.None
	}
	return addr, 0, corerr.Parse
}
