package coap

// IDGenerator produces strictly increasing CoAP message IDs for one
// resource/client. The core makes no assumption about the starting
// value or step (Open Question decision, DESIGN.md): only that two
// calls never return the same id until it wraps at 16 bits, mirroring
// a free-running hardware counter.
type IDGenerator struct {
	next uint16
}

// NewIDGenerator seeds a generator at seed; callers typically seed
// from a platform random source at startup.
func NewIDGenerator(seed uint16) *IDGenerator {
	return &IDGenerator{next: seed}
}

// Next returns the next message id and advances the counter.
func (g *IDGenerator) Next() uint16 {
	g.next++
	return g.next
}
