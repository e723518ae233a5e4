// Package coap implements the minimal CoAP subset the core exchanges
// over UDP: message header encode/decode, the Uri-Path and
// Content-Format options, and a free-running message-id counter.
package coap

import (
	"encoding/binary"

	"github.com/hwipl/thread-core/internal/corerr"
)

// Type is the CoAP message type (RFC 7252 §3).
type Type uint8

const (
	TypeConfirmable    Type = 0
	TypeNonConfirmable Type = 1
	TypeAck            Type = 2
	TypeReset          Type = 3
)

// Code is the CoAP method/response code, packed as (class<<5)|detail.
type Code uint8

const (
	CodeEmpty   Code = 0x00
	CodeGet     Code = 0x01
	CodePost    Code = 0x02
	CodePut     Code = 0x03
	CodeDelete  Code = 0x04
	CodeCreated Code = 0x41 // 2.01
	CodeChanged Code = 0x44 // 2.04
)

// Option numbers used by the core's resources (spec.md §6).
const (
	OptionUriPath       = 11
	OptionContentFormat = 12
)

// ContentFormatOctetStream is the only content-format value the core
// produces or expects, per spec.md §6.
const ContentFormatOctetStream = 42

const version = 1

// Option is a single CoAP option, identified by its option number.
// Uri-Path segments are carried as repeated options in request order.
type Option struct {
	Number uint16
	Value  []byte
}

// Message is a decoded CoAP message: header fields, options, and
// payload. Token is carried but the core never relies on more than
// matching a request/response pair by MessageID.
type Message struct {
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

// UriPath reassembles the Uri-Path option segments into a single
// slash-joined string, e.g. "a/aq".
func (m *Message) UriPath() string {
	path := ""
	for _, o := range m.Options {
		if o.Number != OptionUriPath {
			continue
		}
		if path != "" {
			path += "/"
		}
		path += string(o.Value)
	}
	return path
}

// SetUriPath replaces any existing Uri-Path options with one option
// per "/"-separated segment of path.
func (m *Message) SetUriPath(path string) {
	kept := m.Options[:0]
	for _, o := range m.Options {
		if o.Number != OptionUriPath {
			kept = append(kept, o)
		}
	}
	m.Options = kept

	seg := ""
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if seg != "" {
				m.Options = append(m.Options, Option{Number: OptionUriPath, Value: []byte(seg)})
			}
			seg = ""
			continue
		}
		seg += string(path[i])
	}
}

// Encode serializes m into a CoAP PDU. Options must already be sorted
// by ascending option number (the core only ever emits Uri-Path then
// Content-Format, which is already in numeric order).
func (m *Message) Encode() ([]byte, corerr.Kind) {
	if len(m.Token) > 8 {
		return nil, corerr.InvalidArgs
	}

	out := make([]byte, 0, 16+len(m.Payload))
	out = append(out, byte(version<<6)|byte(m.Type<<4)|byte(len(m.Token)))
	out = append(out, byte(m.Code))
	var mid [2]byte
	binary.BigEndian.PutUint16(mid[:], m.MessageID)
	out = append(out, mid[:]...)
	out = append(out, m.Token...)

	prev := uint16(0)
	for _, o := range m.Options {
		if o.Number < prev {
			return nil, corerr.InvalidArgs
		}
		delta := o.Number - prev
		prev = o.Number
		out = appendOption(out, delta, o.Value)
	}

	if len(m.Payload) > 0 {
		out = append(out, 0xff)
		out = append(out, m.Payload...)
	}
	return out, corerr.None
}

func appendOption(out []byte, delta uint16, value []byte) []byte {
	length := uint16(len(value))
	deltaNibble, deltaExt, deltaExtLen := splitOptionField(delta)
	lengthNibble, lengthExt, lengthExtLen := splitOptionField(length)

	out = append(out, byte(deltaNibble<<4)|byte(lengthNibble))
	out = append(out, deltaExt[:deltaExtLen]...)
	out = append(out, lengthExt[:lengthExtLen]...)
	out = append(out, value...)
	return out
}

// splitOptionField encodes a CoAP option delta/length field (RFC 7252
// §3.1): values under 13 are inline, 13..268 use a one-byte extension
// (value-13), larger values use a two-byte extension. The core's
// option numbers and value lengths never exceed the two-byte range.
func splitOptionField(v uint16) (nibble uint8, ext [2]byte, extLen int) {
	switch {
	case v < 13:
		return uint8(v), ext, 0
	case v < 269:
		ext[0] = byte(v - 13)
		return 13, ext, 1
	default:
		binary.BigEndian.PutUint16(ext[:], v-269)
		return 14, ext, 2
	}
}

// Decode reverses Encode.
func Decode(data []byte) (*Message, corerr.Kind) {
	if len(data) < 4 {
		return nil, corerr.Parse
	}
	if data[0]>>6 != version {
		return nil, corerr.Parse
	}
	tokenLen := int(data[0] & 0x0f)
	if tokenLen > 8 {
		return nil, corerr.Parse
	}

	m := &Message{
		Type:      Type((data[0] >> 4) & 0x3),
		Code:      Code(data[1]),
		MessageID: binary.BigEndian.Uint16(data[2:4]),
	}
	off := 4
	if len(data) < off+tokenLen {
		return nil, corerr.Parse
	}
	m.Token = append([]byte(nil), data[off:off+tokenLen]...)
	off += tokenLen

	optNum := uint16(0)
	for off < len(data) {
		if data[off] == 0xff {
			off++
			m.Payload = append([]byte(nil), data[off:]...)
			return m, corerr.None
		}

		deltaNibble := uint16(data[off] >> 4)
		lengthNibble := uint16(data[off] & 0x0f)
		off++

		delta, n, kind := readOptionField(deltaNibble, data[off:])
		if kind.Fail() {
			return nil, kind
		}
		off += n

		length, n, kind := readOptionField(lengthNibble, data[off:])
		if kind.Fail() {
			return nil, kind
		}
		off += n

		if len(data) < off+int(length) {
			return nil, corerr.Parse
		}
		optNum += delta
		m.Options = append(m.Options, Option{
			Number: optNum,
			Value:  append([]byte(nil), data[off:off+int(length)]...),
		})
		off += int(length)
	}

	return m, corerr.None
}

func readOptionField(nibble uint16, rest []byte) (value uint16, consumed int, kind corerr.Kind) {
	switch nibble {
	case 15:
		return 0, 0, corerr.Parse
	case 13:
		if len(rest) < 1 {
			return 0, 0, corerr.Parse
		}
		return uint16(rest[0]) + 13, 1, corerr.None
	case 14:
		if len(rest) < 2 {
			return 0, 0, corerr.Parse
		}
		return binary.BigEndian.Uint16(rest[:2]) + 269, 2, corerr.None
	default:
		return nibble, 0, corerr.None
	}
}
