// Package mac implements the IEEE 802.15.4 subset the core needs: frame
// framing (this file), AES-CCM link-layer security, and the controller
// state machine (spec.md §4.2, §4.3).
package mac

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
)

// FrameType is the 3-bit frame-type field of the FCF.
type FrameType uint8

const (
	FrameTypeBeacon FrameType = iota
	FrameTypeData
	FrameTypeAck
	FrameTypeMacCommand
)

// AddrMode is a 2-bit addressing-mode field (FCF dest/src addr mode).
type AddrMode uint8

const (
	AddrModeNone AddrMode = iota
	addrModeReserved
	AddrModeShort
	AddrModeExtended
)

// FCF is the 2-byte 802.15.4 Frame Control Field (spec.md §6 bit layout).
type FCF uint16

const (
	fcfTypeMask       = 0x0007
	fcfSecurityBit    = 0x0008
	fcfFramePending   = 0x0010
	fcfAckRequest     = 0x0020
	fcfPanIDCompress  = 0x0040
	fcfDestAddrShift  = 10
	fcfDestAddrMask   = 0x0c00
	fcfVersionShift    = 12
	fcfVersionMask     = 0x3000
	fcfSrcAddrShift    = 14
	fcfSrcAddrMask     = 0xc000
)

func BuildFCF(typ FrameType, security, framePending, ackRequest, panIDCompress bool, dstMode, srcMode AddrMode, version uint8) FCF {
	var f uint16
	f |= uint16(typ) & fcfTypeMask
	if security {
		f |= fcfSecurityBit
	}
	if framePending {
		f |= fcfFramePending
	}
	if ackRequest {
		f |= fcfAckRequest
	}
	if panIDCompress {
		f |= fcfPanIDCompress
	}
	f |= (uint16(dstMode) << fcfDestAddrShift) & fcfDestAddrMask
	f |= (uint16(version) << fcfVersionShift) & fcfVersionMask
	f |= (uint16(srcMode) << fcfSrcAddrShift) & fcfSrcAddrMask
	return FCF(f)
}

func (f FCF) Type() FrameType        { return FrameType(f & fcfTypeMask) }
func (f FCF) Security() bool         { return f&fcfSecurityBit != 0 }
func (f FCF) FramePending() bool     { return f&fcfFramePending != 0 }
func (f FCF) AckRequest() bool       { return f&fcfAckRequest != 0 }
func (f FCF) PanIDCompression() bool { return f&fcfPanIDCompress != 0 }
func (f FCF) DestAddrMode() AddrMode { return AddrMode((f & fcfDestAddrMask) >> fcfDestAddrShift) }
func (f FCF) SrcAddrMode() AddrMode  { return AddrMode((f & fcfSrcAddrMask) >> fcfSrcAddrShift) }
func (f FCF) Version() uint8         { return uint8((f & fcfVersionMask) >> fcfVersionShift) }

// SecurityControl is the 1-byte security-control field (spec.md §6).
type SecurityControl uint8

const (
	secLevelMask  = 0x07
	secKeyIDShift = 3
	secKeyIDMask  = 0x18
)

func BuildSecurityControl(level uint8, keyIDMode uint8) SecurityControl {
	return SecurityControl((level & secLevelMask) | ((keyIDMode << secKeyIDShift) & secKeyIDMask))
}

func (s SecurityControl) SecurityLevel() uint8 { return uint8(s) & secLevelMask }
func (s SecurityControl) KeyIDMode() uint8     { return (uint8(s) & secKeyIDMask) >> secKeyIDShift }

// TagLength returns the AES-CCM authentication tag length implied by a
// security level (0/4/8/16 bytes, spec.md §4.2).
func (s SecurityControl) TagLength() int {
	switch s.SecurityLevel() {
	case 0, 4:
		return 0
	case 1, 5:
		return 4
	case 2, 6:
		return 8
	case 3, 7:
		return 16
	}
	return 0
}

// Encrypted reports whether this security level enables encryption
// (levels 4-7 in 802.15.4-2006 Table 95), as opposed to auth-only.
func (s SecurityControl) Encrypted() bool {
	return s.SecurityLevel() >= 4
}

// Address is a short or extended 802.15.4 address.
type Address struct {
	Mode     AddrMode
	Short    uint16
	Extended [8]byte
}

// Frame is a parsed/to-be-built 802.15.4 data/beacon/command frame,
// excluding the 2-byte FCS footer (spec.md §4.2, §6).
type Frame struct {
	Fcf             FCF
	Seq             uint8
	DstPanID        uint16
	DstAddr         Address
	SrcPanID        uint16
	SrcAddr         Address
	SecurityControl SecurityControl
	FrameCounter    uint32
	KeyIndex        uint8
	Payload         []byte // includes the AES-CCM tag, if any, when parsed from the wire
}

// MaxFrameLen is the 802.15.4 maximum PSDU length including the 2-byte
// FCS footer (spec.md §4.2).
const MaxFrameLen = 127

// addrLen returns the wire length in bytes of an address field for mode.
func addrLen(mode AddrMode) int {
	switch mode {
	case AddrModeShort:
		return 2
	case AddrModeExtended:
		return 8
	default:
		return 0
	}
}

// keyIDLen returns the wire length of the key-identifier field for a
// given key-id mode (0,1,5,9 bytes per 802.15.4-2006 Table 96).
func keyIDLen(mode uint8) int {
	switch mode {
	case 0:
		return 0
	case 1:
		return 1
	case 2:
		return 5
	case 3:
		return 9
	}
	return 0
}

// securityHeaderLen returns the auxiliary security header length: 0 if
// security is disabled, else securityControl(1) + frameCounter(4) +
// keyIdLen(keyIdMode).
func securityHeaderLen(fcf FCF, sec SecurityControl) int {
	if !fcf.Security() {
		return 0
	}
	return 1 + 4 + keyIDLen(sec.KeyIDMode())
}

// HeaderLen computes the MAC header length — FCF, sequence number,
// addressing fields, and auxiliary security header — deterministically
// from fcf and the security-control byte. This is the fixed table
// spec.md §4.2 requires tests to verify.
func HeaderLen(fcf FCF, sec SecurityControl) int {
	n := 2 + 1 // FCF + sequence number

	dstMode := fcf.DestAddrMode()
	srcMode := fcf.SrcAddrMode()

	if dstMode != AddrModeNone {
		n += 2 // dest PAN ID
		n += addrLen(dstMode)
	}
	if srcMode != AddrModeNone {
		if !(fcf.PanIDCompression() && dstMode != AddrModeNone) {
			n += 2 // source PAN ID, unless compressed into dest PAN ID
		}
		n += addrLen(srcMode)
	}

	n += securityHeaderLen(fcf, sec)
	return n
}

// Build encodes f into a wire frame, excluding the FCS footer (the radio
// driver appends/validates FCS per spec.md §6). Payload is written
// verbatim — callers apply AES-CCM before calling Build when security is
// set.
func (f *Frame) Build() ([]byte, corerr.Kind) {
	hdrLen := HeaderLen(f.Fcf, f.SecurityControl)
	total := hdrLen + len(f.Payload)
	if total+2 > MaxFrameLen {
		return nil, corerr.InvalidArgs
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(f.Fcf))
	buf[2] = f.Seq
	off := 3

	dstMode := f.Fcf.DestAddrMode()
	srcMode := f.Fcf.SrcAddrMode()

	if dstMode != AddrModeNone {
		binary.LittleEndian.PutUint16(buf[off:off+2], f.DstPanID)
		off += 2
		off += writeAddr(buf[off:], dstMode, f.DstAddr)
	}
	if srcMode != AddrModeNone {
		if !(f.Fcf.PanIDCompression() && dstMode != AddrModeNone) {
			binary.LittleEndian.PutUint16(buf[off:off+2], f.SrcPanID)
			off += 2
		}
		off += writeAddr(buf[off:], srcMode, f.SrcAddr)
	}

	if f.Fcf.Security() {
		buf[off] = byte(f.SecurityControl)
		off++
		binary.LittleEndian.PutUint32(buf[off:off+4], f.FrameCounter)
		off += 4
		if n := keyIDLen(f.SecurityControl.KeyIDMode()); n > 0 {
			buf[off] = f.KeyIndex
			off += n
		}
	}

	copy(buf[off:], f.Payload)
	return buf, corerr.None
}

func writeAddr(buf []byte, mode AddrMode, addr Address) int {
	switch mode {
	case AddrModeShort:
		binary.LittleEndian.PutUint16(buf[0:2], addr.Short)
		return 2
	case AddrModeExtended:
		// Thread/802.15.4 addresses are transmitted little-endian-reversed
		// on the wire relative to their canonical (big-endian) form.
		for i := 0; i < 8; i++ {
			buf[i] = addr.Extended[7-i]
		}
		return 8
	default:
		return 0
	}
}

func readAddr(buf []byte, mode AddrMode) Address {
	var a Address
	a.Mode = mode
	switch mode {
	case AddrModeShort:
		a.Short = binary.LittleEndian.Uint16(buf[0:2])
	case AddrModeExtended:
		for i := 0; i < 8; i++ {
			a.Extended[i] = buf[7-i]
		}
	}
	return a
}

// Parse decodes a wire frame (sans FCS footer) using the FCF to compute
// field offsets (spec.md §4.2).
func Parse(buf []byte) (*Frame, corerr.Kind) {
	if len(buf) < 3 {
		return nil, corerr.Parse
	}
	f := &Frame{}
	f.Fcf = FCF(binary.LittleEndian.Uint16(buf[0:2]))
	f.Seq = buf[2]
	off := 3

	dstMode := f.Fcf.DestAddrMode()
	srcMode := f.Fcf.SrcAddrMode()

	if dstMode != AddrModeNone {
		if off+2 > len(buf) {
			return nil, corerr.Parse
		}
		f.DstPanID = binary.LittleEndian.Uint16(buf[off : off+2])
		off += 2
		n := addrLen(dstMode)
		if off+n > len(buf) {
			return nil, corerr.Parse
		}
		f.DstAddr = readAddr(buf[off:], dstMode)
		off += n
	}
	if srcMode != AddrModeNone {
		if !(f.Fcf.PanIDCompression() && dstMode != AddrModeNone) {
			if off+2 > len(buf) {
				return nil, corerr.Parse
			}
			f.SrcPanID = binary.LittleEndian.Uint16(buf[off : off+2])
			off += 2
		} else {
			f.SrcPanID = f.DstPanID
		}
		n := addrLen(srcMode)
		if off+n > len(buf) {
			return nil, corerr.Parse
		}
		f.SrcAddr = readAddr(buf[off:], srcMode)
		off += n
	}

	if f.Fcf.Security() {
		if off+1 > len(buf) {
			return nil, corerr.Parse
		}
		f.SecurityControl = SecurityControl(buf[off])
		off++
		if off+4 > len(buf) {
			return nil, corerr.Parse
		}
		f.FrameCounter = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if n := keyIDLen(f.SecurityControl.KeyIDMode()); n > 0 {
			if off+n > len(buf) {
				return nil, corerr.Parse
			}
			f.KeyIndex = buf[off]
			off += n
		}
	}

	f.Payload = buf[off:]
	return f, corerr.None
}
