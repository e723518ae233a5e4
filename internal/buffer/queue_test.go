package buffer

import (
	"testing"

	"github.com/hwipl/thread-core/internal/corerr"
)

func TestMessageQueueOrderAndDoubleEnqueue(t *testing.T) {
	pool := NewPool(8, 32)
	q := NewMessageQueue()

	m1, _ := pool.New(TypeIP6, 0)
	m2, _ := pool.New(TypeIP6, 0)

	if kind := q.Enqueue(m1); kind.Fail() {
		t.Fatalf("Enqueue m1: %s", kind)
	}
	if kind := q.Enqueue(m2); kind.Fail() {
		t.Fatalf("Enqueue m2: %s", kind)
	}
	if kind := q.Enqueue(m1); kind != corerr.Already {
		t.Fatalf("double Enqueue = %s, want Already", kind)
	}

	if got := q.Pop(); got != m1 {
		t.Fatalf("Pop #1 = %p, want m1 %p", got, m1)
	}
	if got := q.Pop(); got != m2 {
		t.Fatalf("Pop #2 = %p, want m2 %p", got, m2)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after draining, want 0", q.Len())
	}
}

func TestMessageQueueDequeueNotFound(t *testing.T) {
	pool := NewPool(4, 32)
	q := NewMessageQueue()
	m, _ := pool.New(TypeIP6, 0)

	if kind := q.Dequeue(m); kind != corerr.NotFound {
		t.Fatalf("Dequeue unenqueued = %s, want NotFound", kind)
	}
}

func TestMessageAtMostOneQueue(t *testing.T) {
	pool := NewPool(4, 32)
	q1 := NewMessageQueue()
	q2 := NewMessageQueue()
	m, _ := pool.New(TypeIP6, 0)

	if kind := q1.Enqueue(m); kind.Fail() {
		t.Fatalf("Enqueue q1: %s", kind)
	}
	if kind := q2.Enqueue(m); kind != corerr.Already {
		t.Fatalf("Enqueue q2 while on q1 = %s, want Already", kind)
	}
}

func TestPriorityQueueOrdering(t *testing.T) {
	pool := NewPool(8, 32)
	pq := NewPriorityQueue()

	low, _ := pool.New(TypeIP6, 0)
	low.Priority = PriorityLow
	high, _ := pool.New(TypeIP6, 0)
	high.Priority = PriorityHigh
	med, _ := pool.New(TypeIP6, 0)
	med.Priority = PriorityMedium

	pq.Enqueue(low)
	pq.Enqueue(high)
	pq.Enqueue(med)

	if got := pq.Pop(); got != high {
		t.Fatalf("Pop #1 = %p, want high %p", got, high)
	}
	if got := pq.Pop(); got != med {
		t.Fatalf("Pop #2 = %p, want med %p", got, med)
	}
	if got := pq.Pop(); got != low {
		t.Fatalf("Pop #3 = %p, want low %p", got, low)
	}
}

func TestPriorityQueueSetPriorityMoves(t *testing.T) {
	pool := NewPool(8, 32)
	pq := NewPriorityQueue()

	a, _ := pool.New(TypeIP6, 0)
	a.Priority = PriorityLow
	b, _ := pool.New(TypeIP6, 0)
	b.Priority = PriorityHigh

	pq.Enqueue(a)
	pq.Enqueue(b)

	if kind := pq.SetPriority(a, PriorityHigh); kind.Fail() {
		t.Fatalf("SetPriority: %s", kind)
	}
	if a.Priority != PriorityHigh {
		t.Fatalf("a.Priority = %s, want High", a.Priority)
	}
	if !pq.Contains(a) {
		t.Fatalf("a no longer queued after SetPriority")
	}
	if pq.Len() != 2 {
		t.Fatalf("Len() = %d after SetPriority, want 2", pq.Len())
	}
}

// TestAllMessagesQueueIndependentOfInterfaceQueue verifies a message can
// sit on the pool-wide "all messages" queue and an interface queue at the
// same time (spec.md §3, §4.1).
func TestAllMessagesQueueIndependentOfInterfaceQueue(t *testing.T) {
	pool := NewPool(4, 32)
	iface := NewMessageQueue()

	m, _ := pool.New(TypeIP6, 0)
	if !pool.all.Contains(m) {
		t.Fatalf("message not registered on pool-wide all-messages queue after New")
	}
	if kind := iface.Enqueue(m); kind.Fail() {
		t.Fatalf("Enqueue on interface queue while on all-messages queue: %s", kind)
	}
	if !pool.all.Contains(m) {
		t.Fatalf("message dropped from all-messages queue after interface Enqueue")
	}
}
