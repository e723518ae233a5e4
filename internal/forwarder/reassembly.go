package forwarder

import (
	"github.com/hwipl/thread-core/internal/buffer"
	"github.com/hwipl/thread-core/internal/corerr"
)

// ReassemblyTimeout is the countdown (in 1Hz tasklet ticks) before an
// incomplete reassembly entry is reaped (spec.md §4.5/§5, kReassemblyTimeout).
const ReassemblyTimeout = 5

// reassemblyEntry tracks one in-progress datagram, keyed by
// (datagramTag, totalLength, offset) per spec.md §4.5.
type reassemblyEntry struct {
	tag     uint16
	total   int
	offset  int
	msg     *buffer.Message
	timeout int
}

// ReassemblyList holds in-progress datagram reassembly, one entry per
// (tag, total) pair, reaped by a 1Hz tasklet (spec.md §4.5).
type ReassemblyList struct {
	pool    *buffer.Pool
	entries []*reassemblyEntry
}

// NewReassemblyList returns an empty list backed by pool for message
// allocation.
func NewReassemblyList(pool *buffer.Pool) *ReassemblyList {
	return &ReassemblyList{pool: pool}
}

// StartFirst allocates a message for a first fragment, sets length to
// totalSize, and writes the fragment's payload (its fragment header
// already stripped by the caller) at offset 0 as-is. It does not
// decompress any 6LoWPAN headers in that payload.
func (r *ReassemblyList) StartFirst(tag uint16, totalSize int, payload []byte) (*reassemblyEntry, corerr.Kind) {
	msg, kind := r.pool.New(buffer.TypeIP6, 0)
	if kind.Fail() {
		return nil, kind
	}
	if kind := msg.SetLength(totalSize); kind.Fail() {
		msg.Free()
		return nil, kind
	}
	msg.Write(0, len(payload), payload)

	e := &reassemblyEntry{tag: tag, total: totalSize, offset: len(payload), msg: msg, timeout: ReassemblyTimeout}
	r.entries = append(r.entries, e)
	return e, corerr.None
}

// AddSubsequent appends a subsequent fragment's payload to the entry
// matching (tag, total, offset == current offset). When the entry's
// offset reaches its total length, deliver is called with the
// completed message and the entry is removed.
func (r *ReassemblyList) AddSubsequent(tag uint16, total, offset int, payload []byte, deliver func(*buffer.Message)) corerr.Kind {
	for i, e := range r.entries {
		if e.tag != tag || e.total != total {
			continue
		}
		if e.offset != offset {
			return corerr.Drop
		}
		e.msg.Write(offset, len(payload), payload)
		e.offset += len(payload)
		e.timeout = ReassemblyTimeout
		if e.offset >= e.total {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			deliver(e.msg)
		}
		return corerr.None
	}
	return corerr.NotFound
}

// Tick runs the 1Hz reap pass: decrements every entry's timeout and
// frees (without delivery) any that reach zero.
func (r *ReassemblyList) Tick() {
	kept := r.entries[:0]
	for _, e := range r.entries {
		e.timeout--
		if e.timeout <= 0 {
			e.msg.Free()
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
}

// Len reports the number of in-progress reassemblies.
func (r *ReassemblyList) Len() int { return len(r.entries) }
