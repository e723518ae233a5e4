package buffer

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/hwipl/thread-core/internal/corerr"
)

// TestMessageRoundTrip is spec.md's concrete scenario 3: create a message
// of 1024 bytes, write random contents, read back — bytes must match
// exactly, length must be 1024, and free must succeed.
func TestMessageRoundTrip(t *testing.T) {
	pool := NewPool(64, 128)

	msg, kind := pool.New(TypeIP6, 0)
	if kind.Fail() {
		t.Fatalf("New: %s", kind)
	}
	if kind := msg.SetLength(1024); kind.Fail() {
		t.Fatalf("SetLength(1024): %s", kind)
	}
	if msg.Length() != 1024 {
		t.Fatalf("Length() = %d, want 1024", msg.Length())
	}

	want := make([]byte, 1024)
	rand.New(rand.NewSource(1)).Read(want)
	if n := msg.Write(0, len(want), want); n != len(want) {
		t.Fatalf("Write returned %d, want %d", n, len(want))
	}

	got := make([]byte, 1024)
	if n := msg.Read(0, len(got), got); n != len(got) {
		t.Fatalf("Read returned %d, want %d", n, len(got))
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round-tripped bytes differ")
	}

	if kind := msg.Free(); kind.Fail() {
		t.Fatalf("Free: %s", kind)
	}
	if pool.FreeCells() != pool.TotalCells() {
		t.Fatalf("FreeCells() = %d after Free, want %d", pool.FreeCells(), pool.TotalCells())
	}
}

// TestPoolExhaustion verifies NoBufs on allocation past capacity, and that
// freeCount + cellsHeldByMessages == totalCells always holds (spec.md §8).
func TestPoolExhaustion(t *testing.T) {
	pool := NewPool(4, 16)

	var msgs []*Message
	for i := 0; i < 4; i++ {
		m, kind := pool.New(TypeIP6, 0)
		if kind.Fail() {
			t.Fatalf("New #%d: %s", i, kind)
		}
		msgs = append(msgs, m)
	}

	if _, kind := pool.New(TypeIP6, 0); kind != corerr.NoBufs {
		t.Fatalf("New on exhausted pool = %s, want NoBufs", kind)
	}

	held := 0
	for _, m := range msgs {
		held += pool.chainLen(m.head)
	}
	if pool.FreeCells()+held != pool.TotalCells() {
		t.Fatalf("freeCount(%d) + held(%d) != totalCells(%d)", pool.FreeCells(), held, pool.TotalCells())
	}

	for _, m := range msgs {
		m.Free()
	}
	if pool.FreeCells() != pool.TotalCells() {
		t.Fatalf("FreeCells() = %d after freeing all, want %d", pool.FreeCells(), pool.TotalCells())
	}
}

// TestSetLengthGrowsAcrossCells checks that SetLength grows the chain when
// n exceeds the current capacity, and fails with NoBufs without mutating
// length when the pool cannot satisfy it.
func TestSetLengthGrowsAcrossCells(t *testing.T) {
	pool := NewPool(3, 16)

	m, kind := pool.New(TypeIP6, 0)
	if kind.Fail() {
		t.Fatalf("New: %s", kind)
	}

	if kind := m.SetLength(40); kind.Fail() {
		t.Fatalf("SetLength(40): %s", kind)
	}
	if m.Length() != 40 {
		t.Fatalf("Length() = %d, want 40", m.Length())
	}

	before := m.Length()
	if kind := m.SetLength(1000); kind != corerr.NoBufs {
		t.Fatalf("SetLength(1000) = %s, want NoBufs", kind)
	}
	if m.Length() != before {
		t.Fatalf("Length() changed after failed SetLength: got %d, want %d", m.Length(), before)
	}
}

// TestPrependAppend exercises header-reserve shrinkage and tail growth.
func TestPrependAppend(t *testing.T) {
	pool := NewPool(16, 128)

	m, kind := pool.New(TypeIP6, 32)
	if kind.Fail() {
		t.Fatalf("New: %s", kind)
	}
	if m.Reserved() != 32 || m.Length() != 32 {
		t.Fatalf("reserved=%d length=%d, want 32/32", m.Reserved(), m.Length())
	}

	header := []byte("HDR!")
	if kind := m.Prepend(header, len(header)); kind.Fail() {
		t.Fatalf("Prepend: %s", kind)
	}
	if m.Reserved() != 32-len(header) {
		t.Fatalf("Reserved() = %d, want %d", m.Reserved(), 32-len(header))
	}
	got := make([]byte, len(header))
	m.Read(m.Reserved(), len(header), got)
	if !bytes.Equal(got, header) {
		t.Fatalf("prepended bytes = %q, want %q", got, header)
	}

	payload := []byte("payload-bytes")
	if kind := m.Append(payload, len(payload)); kind.Fail() {
		t.Fatalf("Append: %s", kind)
	}
	tail := make([]byte, len(payload))
	m.Read(m.Length()-len(payload), len(payload), tail)
	if !bytes.Equal(tail, payload) {
		t.Fatalf("appended bytes = %q, want %q", tail, payload)
	}
}
