package buffer

import "github.com/hwipl/thread-core/internal/corerr"

// Priority is a message's scheduling priority (spec.md §3). Iota order
// matches "head is the non-empty queue of highest priority".
type Priority uint8

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
	PriorityVeryLow
	numPriorities
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	case PriorityVeryLow:
		return "VeryLow"
	default:
		return "Unknown"
	}
}

// PriorityQueue is four FIFOs, one per priority class; Pop drains the
// highest-priority non-empty sub-queue first (spec.md §4.1).
type PriorityQueue struct {
	sel  func(*Message) *link
	subs [numPriorities]*MessageQueue
}

func newPriorityQueue(sel func(*Message) *link) *PriorityQueue {
	pq := &PriorityQueue{sel: sel}
	for i := range pq.subs {
		pq.subs[i] = newMessageQueue(sel)
	}
	return pq
}

// NewPriorityQueue creates an interface-facing priority queue.
func NewPriorityQueue() *PriorityQueue {
	return newPriorityQueue(nodeSel)
}

// Len returns the total number of messages queued across all priorities.
func (pq *PriorityQueue) Len() int {
	n := 0
	for _, s := range pq.subs {
		n += s.Len()
	}
	return n
}

// Enqueue appends m to the sub-queue matching m.Priority.
func (pq *PriorityQueue) Enqueue(m *Message) corerr.Kind {
	return pq.subs[m.Priority].enqueue(m)
}

// Dequeue removes m from whichever sub-queue currently holds it.
func (pq *PriorityQueue) Dequeue(m *Message) corerr.Kind {
	l := pq.sel(m)
	if l.owner == nil {
		return corerr.NotFound
	}
	sub, ok := l.owner.(*MessageQueue)
	if !ok {
		return corerr.NotFound
	}
	return sub.dequeue(m)
}

// Front returns the head of the highest-priority non-empty sub-queue.
func (pq *PriorityQueue) Front() *Message {
	for _, s := range pq.subs {
		if s.head != nil {
			return s.head
		}
	}
	return nil
}

// Pop removes and returns Front().
func (pq *PriorityQueue) Pop() *Message {
	for _, s := range pq.subs {
		if m := s.Pop(); m != nil {
			return m
		}
	}
	return nil
}

// SetPriority moves an already-enqueued message between per-priority
// sub-lists, atomically with respect to other tasklets since nothing
// preempts a running tasklet (spec.md §4.1, §5).
func (pq *PriorityQueue) SetPriority(m *Message, newPriority Priority) corerr.Kind {
	l := pq.sel(m)
	cur, ok := l.owner.(*MessageQueue)
	if !ok || cur == nil {
		m.Priority = newPriority
		return corerr.None
	}
	// find which sub-queue currently owns it
	var curIdx = -1
	for i, s := range pq.subs {
		if s == cur {
			curIdx = i
			break
		}
	}
	if curIdx == -1 || Priority(curIdx) == newPriority {
		m.Priority = newPriority
		return corerr.None
	}
	pq.subs[curIdx].dequeue(m)
	m.Priority = newPriority
	return pq.subs[newPriority].enqueue(m)
}

// Contains reports whether m is queued anywhere in pq.
func (pq *PriorityQueue) Contains(m *Message) bool {
	l := pq.sel(m)
	sub, ok := l.owner.(*MessageQueue)
	if !ok {
		return false
	}
	for _, s := range pq.subs {
		if s == sub {
			return true
		}
	}
	return false
}

// Each calls fn for every queued message, highest priority first.
func (pq *PriorityQueue) Each(fn func(*Message)) {
	for _, s := range pq.subs {
		s.Each(fn)
	}
}
