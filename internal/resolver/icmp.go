package resolver

import (
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv6"

	"github.com/hwipl/thread-core/internal/corerr"
)

// icmpNoRoute is the ICMPv6 Destination Unreachable code the resolver
// reacts to (spec.md §4.6, "code no-route").
const icmpNoRoute = 0

// BuildDestinationUnreachable constructs a code-0 (no route to
// destination) ICMPv6 message wrapping the start of the offending
// datagram, as sent by an upstream hop that can't forward it further.
func BuildDestinationUnreachable(originalDatagram []byte) ([]byte, corerr.Kind) {
	msg := icmp.Message{
		Type: ipv6.ICMPTypeDestinationUnreachable,
		Code: icmpNoRoute,
		Body: &icmp.DstUnreach{Data: originalDatagram},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return nil, corerr.Parse
	}
	return wire, corerr.None
}

// ParseDestinationUnreachable extracts the original destination address
// embedded in a received ICMPv6 datagram, if it is a code-0 (no-route)
// Destination Unreachable, so the caller can invalidate the matching
// cache entry (spec.md §4.6).
func ParseDestinationUnreachable(data []byte, extractDst func(originalDatagram []byte) ([16]byte, bool)) (dst [16]byte, ok bool) {
	msg, err := icmp.ParseMessage(int(ipv6.ICMPTypeDestinationUnreachable.Protocol()), data)
	if err != nil {
		return dst, false
	}
	if msg.Type != ipv6.ICMPTypeDestinationUnreachable || msg.Code != icmpNoRoute {
		return dst, false
	}
	body, ok := msg.Body.(*icmp.DstUnreach)
	if !ok {
		return dst, false
	}
	return extractDst(body.Data)
}
