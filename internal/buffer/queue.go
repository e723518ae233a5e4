package buffer

import "github.com/hwipl/thread-core/internal/corerr"

// link is one intrusive doubly-linked-list node. A Message carries two
// independent links (node, allNode) so it can sit on both its current
// MessageQueue/PriorityQueue and the pool-wide "all messages" queue at
// once (spec.md §4.1), while still obeying "a message belongs to at most
// one MessageQueue or PriorityQueue at a time" for the `node` link.
type link struct {
	owner interface{} // identity of the list currently holding this node, nil if none
	prev  *Message
	next  *Message
}

func nodeSel(m *Message) *link    { return &m.node }
func allNodeSel(m *Message) *link { return &m.allNode }

// MessageQueue is a single FIFO of messages, preserving enqueue order.
type MessageQueue struct {
	sel    func(*Message) *link
	head   *Message
	tail   *Message
	length int
}

func newMessageQueue(sel func(*Message) *link) *MessageQueue {
	return &MessageQueue{sel: sel}
}

// NewMessageQueue creates an interface-facing FIFO queue (e.g. the
// forwarder's SendQueue or ResolvingQueue).
func NewMessageQueue() *MessageQueue {
	return newMessageQueue(nodeSel)
}

// Len returns the number of messages currently queued.
func (q *MessageQueue) Len() int { return q.length }

// Enqueue appends m to the tail. Fails with Already if m is already
// enqueued on any MessageQueue or PriorityQueue.
func (q *MessageQueue) Enqueue(m *Message) corerr.Kind {
	return q.enqueue(m)
}

func (q *MessageQueue) enqueue(m *Message) corerr.Kind {
	l := q.sel(m)
	if l.owner != nil {
		return corerr.Already
	}
	l.owner = q
	l.prev = q.tail
	l.next = nil
	if q.tail != nil {
		q.sel(q.tail).next = m
	} else {
		q.head = m
	}
	q.tail = m
	q.length++
	return corerr.None
}

// Dequeue removes m from the queue. Fails with NotFound if m is not on
// this queue.
func (q *MessageQueue) Dequeue(m *Message) corerr.Kind {
	return q.dequeue(m)
}

func (q *MessageQueue) dequeue(m *Message) corerr.Kind {
	l := q.sel(m)
	if l.owner != q {
		return corerr.NotFound
	}
	if l.prev != nil {
		q.sel(l.prev).next = l.next
	} else {
		q.head = l.next
	}
	if l.next != nil {
		q.sel(l.next).prev = l.prev
	} else {
		q.tail = l.prev
	}
	l.owner = nil
	l.prev = nil
	l.next = nil
	q.length--
	return corerr.None
}

// Front returns the head message, or nil if the queue is empty.
func (q *MessageQueue) Front() *Message { return q.head }

// Pop removes and returns the head message, or nil if empty.
func (q *MessageQueue) Pop() *Message {
	m := q.head
	if m == nil {
		return nil
	}
	q.dequeue(m)
	return m
}

// Contains reports whether m is currently enqueued on q.
func (q *MessageQueue) Contains(m *Message) bool {
	return q.sel(m).owner == q
}

// Each calls fn for every message currently on the queue, in order.
// fn must not mutate queue membership of the message it is called with.
func (q *MessageQueue) Each(fn func(*Message)) {
	for m := q.head; m != nil; {
		next := q.sel(m).next
		fn(m)
		m = next
	}
}
