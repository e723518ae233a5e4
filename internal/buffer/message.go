package buffer

import "github.com/hwipl/thread-core/internal/corerr"

// MsgType is the kind of payload a Message carries (spec.md §3).
type MsgType uint8

const (
	TypeIP6 MsgType = iota
	TypeLowpan6
	TypeMacData
	TypeMacDataPoll
	TypeMleAnnounce
	TypeMleDiscoverRequest
	TypeMleDiscoverResponse
	TypeJoinerEntrust
	TypeMplRetransmission
	TypeMleGeneral
)

func (t MsgType) String() string {
	switch t {
	case TypeIP6:
		return "Ip6"
	case TypeLowpan6:
		return "Lowpan6"
	case TypeMacData:
		return "MacData"
	case TypeMacDataPoll:
		return "MacDataPoll"
	case TypeMleAnnounce:
		return "MleAnnounce"
	case TypeMleDiscoverRequest:
		return "MleDiscoverRequest"
	case TypeMleDiscoverResponse:
		return "MleDiscoverResponse"
	case TypeJoinerEntrust:
		return "JoinerEntrust"
	case TypeMplRetransmission:
		return "MplRetransmission"
	case TypeMleGeneral:
		return "MleGeneral"
	default:
		return "Unknown"
	}
}

// Message is a logical packet: a pool reference plus a head-cell index,
// one or more cells chained together, and the bookkeeping fields spec.md
// §3 requires (see the package doc for why this departs from the
// original's raw-pointer-chain / Buffer-subtype layout).
type Message struct {
	pool *Pool
	head uint16

	Type     MsgType
	Priority Priority

	reserved int
	length   int
	offset   int

	ChildMask    uint64 // bit-vector of pending sleepy-child recipients
	DirectTx     bool
	LinkSecurity bool
	DatagramTag  uint16
	Timeout      int // seconds-to-reap during reassembly
	PanID        uint16
	Channel      uint8

	node    link
	allNode link
}

// New allocates a message of the given type with reserve bytes of header
// space provisioned (spec.md §4.1). On NoBufs the pool is left unchanged.
func (p *Pool) New(typ MsgType, reserve int) (*Message, corerr.Kind) {
	idx, kind := p.newBuffer()
	if kind.Fail() {
		return nil, kind
	}

	m := &Message{
		pool:     p,
		head:     idx,
		Type:     typ,
		Priority: PriorityMedium,
	}

	if reserve > 0 {
		needCells := (reserve + p.cellSize - 1) / p.cellSize
		if needCells > 1 {
			_, _, k := p.growChain(idx, needCells-1)
			if k.Fail() {
				p.freeBuffers(idx)
				return nil, k
			}
		}
	}
	m.reserved = reserve
	m.length = reserve
	m.offset = reserve

	p.all.Enqueue(m)
	return m, corerr.None
}

// Free returns every cell of m to the pool. m must not currently be
// enqueued on an interface-facing MessageQueue or PriorityQueue — callers
// dequeue first. Always safe to call once per message.
func (m *Message) Free() corerr.Kind {
	if m.node.owner != nil {
		return corerr.Already
	}
	m.pool.all.Dequeue(m)
	m.pool.freeBuffers(m.head)
	m.head = invalidIndex
	return corerr.None
}

// Length returns the current logical length in bytes.
func (m *Message) Length() int { return m.length }

// Offset returns the current read/write cursor.
func (m *Message) Offset() int { return m.offset }

// SetOffset repositions the cursor; it must stay within [reserved, length].
func (m *Message) SetOffset(off int) corerr.Kind {
	if off < m.reserved || off > m.length {
		return corerr.InvalidArgs
	}
	m.offset = off
	return corerr.None
}

// Reserved returns the reserved header-space size in bytes.
func (m *Message) Reserved() int { return m.reserved }

// capacity returns the total bytes the message's current chain can hold.
func (m *Message) capacity() int {
	return m.pool.chainLen(m.head) * m.pool.cellSize
}

// SetLength grows or shrinks the chain to hold n bytes, failing with
// NoBufs (and leaving length unchanged) if growth cannot be satisfied
// (spec.md §4.1).
func (m *Message) SetLength(n int) corerr.Kind {
	if n < 0 {
		return corerr.InvalidArgs
	}
	cap := m.capacity()
	if n <= cap {
		m.length = n
		if m.offset > m.length {
			m.offset = m.length
		}
		return corerr.None
	}
	extraCells := (n - cap + m.pool.cellSize - 1) / m.pool.cellSize
	tail := m.tailCell()
	_, _, kind := m.pool.growChain(tail, extraCells)
	if kind.Fail() {
		return corerr.NoBufs
	}
	m.length = n
	return corerr.None
}

// tailCell returns the index of the last cell in the chain.
func (m *Message) tailCell() uint16 {
	idx := m.head
	for m.pool.cells[idx].next != invalidIndex {
		idx = m.pool.cells[idx].next
	}
	return idx
}

// cellAt returns the cell index and the byte offset within that cell
// holding absolute byte position pos.
func (m *Message) cellAt(pos int) (idx uint16, inCell int) {
	idx = m.head
	cellSize := m.pool.cellSize
	for pos >= cellSize {
		idx = m.pool.cells[idx].next
		pos -= cellSize
	}
	return idx, pos
}

// Read copies n bytes starting at offset into dst, walking the cell chain.
func (m *Message) Read(offset, n int, dst []byte) int {
	if offset < 0 || n <= 0 {
		return 0
	}
	cellSize := m.pool.cellSize
	idx, inCell := m.cellAt(offset)
	copied := 0
	for copied < n {
		avail := cellSize - inCell
		want := n - copied
		if want > avail {
			want = avail
		}
		if want <= 0 {
			break
		}
		copy(dst[copied:copied+want], m.pool.cells[idx].payload[inCell:inCell+want])
		copied += want
		inCell = 0
		if copied < n {
			idx = m.pool.cells[idx].next
			if idx == invalidIndex {
				break
			}
		}
	}
	return copied
}

// Write copies n bytes from src into the message starting at offset.
func (m *Message) Write(offset, n int, src []byte) int {
	if offset < 0 || n <= 0 {
		return 0
	}
	cellSize := m.pool.cellSize
	idx, inCell := m.cellAt(offset)
	written := 0
	for written < n {
		avail := cellSize - inCell
		want := n - written
		if want > avail {
			want = avail
		}
		if want <= 0 {
			break
		}
		copy(m.pool.cells[idx].payload[inCell:inCell+want], src[written:written+want])
		written += want
		inCell = 0
		if written < n {
			idx = m.pool.cells[idx].next
			if idx == invalidIndex {
				break
			}
		}
	}
	return written
}

// CopyTo copies n bytes from srcOffset in m to dstOffset in other,
// through a small stack buffer; m and other may share the same pool.
func (m *Message) CopyTo(srcOffset int, other *Message, dstOffset, n int) int {
	var buf [64]byte
	total := 0
	for total < n {
		want := n - total
		if want > len(buf) {
			want = len(buf)
		}
		got := m.Read(srcOffset+total, want, buf[:want])
		if got == 0 {
			break
		}
		put := other.Write(dstOffset+total, got, buf[:got])
		total += put
		if put < got {
			break
		}
	}
	return total
}

// Prepend shifts reserved space backwards by n bytes and writes buf into
// the freed header space. Requires n <= Reserved().
func (m *Message) Prepend(buf []byte, n int) corerr.Kind {
	if n > m.reserved {
		return corerr.InvalidArgs
	}
	m.reserved -= n
	m.Write(m.reserved, n, buf)
	if m.offset < m.reserved {
		m.offset = m.reserved
	}
	return corerr.None
}

// Append grows length by n bytes and writes buf at the previous tail.
func (m *Message) Append(buf []byte, n int) corerr.Kind {
	oldLen := m.length
	if kind := m.SetLength(oldLen + n); kind.Fail() {
		return kind
	}
	m.Write(oldLen, n, buf)
	return corerr.None
}
