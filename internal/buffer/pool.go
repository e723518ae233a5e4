// Package buffer implements the fixed-capacity, chain-of-fixed-cells
// message store backing every packet in flight (spec.md §4.1), and the
// queue/priority-queue discipline messages are enqueued on.
//
// The original source models a cell chain with raw "next" pointers
// (spec.md §9 "Raw pointer chains"); here cells live in one contiguous
// pool slice and chains are u16 arena indices, so chain-walk is index
// arithmetic instead of pointer chasing. Queue membership (queue.go)
// links Messages with ordinary Go pointers.
package buffer

import (
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/logging"
)

var log = logging.For("buffer")

const invalidIndex = 0xffff

// cell is one fixed-size slot in the pool. Message metadata (type,
// priority, offsets, ...) lives in the Message struct, not in the cell
// itself, so head and follow-on cells are identical: a next link plus a
// fixed-size raw payload area.
type cell struct {
	next    uint16 // index of the next cell in this message's chain, or invalidIndex
	payload []byte // len == cellSize
}

// Pool is a fixed-capacity store of cells, pre-chained into a free list.
type Pool struct {
	cells     []cell
	freeHead  uint16
	freeCount int
	cellSize  int // bytes of raw payload storage per cell

	all *PriorityQueue // pool-wide "all messages" visibility queue
}

// NewPool pre-allocates numCells cells of cellSize bytes each, chained
// into a free list (spec.md §4.1).
func NewPool(numCells, cellSize int) *Pool {
	p := &Pool{
		cells:    make([]cell, numCells),
		cellSize: cellSize,
	}
	for i := range p.cells {
		p.cells[i].payload = make([]byte, cellSize)
		if i == len(p.cells)-1 {
			p.cells[i].next = invalidIndex
		} else {
			p.cells[i].next = uint16(i + 1)
		}
	}
	if numCells > 0 {
		p.freeHead = 0
	} else {
		p.freeHead = invalidIndex
	}
	p.freeCount = numCells
	p.all = newPriorityQueue(allNodeSel)
	return p
}

// FreeCells returns the number of cells currently on the free list.
func (p *Pool) FreeCells() int {
	return p.freeCount
}

// TotalCells returns the total cell count the pool was created with.
func (p *Pool) TotalCells() int {
	return len(p.cells)
}

// CellPayloadSize returns the usable payload bytes per cell.
func (p *Pool) CellPayloadSize() int {
	return p.cellSize
}

// newBuffer pops one cell off the free list. Returns invalidIndex,
// NoBufs on exhaustion.
func (p *Pool) newBuffer() (uint16, corerr.Kind) {
	if p.freeHead == invalidIndex {
		return invalidIndex, corerr.NoBufs
	}
	idx := p.freeHead
	p.freeHead = p.cells[idx].next
	p.cells[idx].next = invalidIndex
	p.freeCount--
	return idx, corerr.None
}

// freeBuffers pushes the chain starting at head back onto the free list.
func (p *Pool) freeBuffers(head uint16) {
	if head == invalidIndex {
		return
	}
	idx := head
	count := 1
	for p.cells[idx].next != invalidIndex {
		idx = p.cells[idx].next
		count++
	}
	p.cells[idx].next = p.freeHead
	p.freeHead = head
	p.freeCount += count
}

// chainLen walks the chain starting at head and returns its cell count.
func (p *Pool) chainLen(head uint16) int {
	n := 0
	idx := head
	for idx != invalidIndex {
		n++
		idx = p.cells[idx].next
	}
	return n
}

// growChain appends extra cells to the chain ending at tail. On NoBufs it
// frees every cell it managed to allocate before failing, leaving the
// pool state as if growChain had never been called (spec.md §4.1: "on
// failure it returns the entire message to the free list" is implemented
// one level up, in Pool.New, using this rollback).
func (p *Pool) growChain(tail uint16, extra int) (newTail uint16, added []uint16, kind corerr.Kind) {
	cur := tail
	for i := 0; i < extra; i++ {
		idx, k := p.newBuffer()
		if k.Fail() {
			p.cells[tail].next = invalidIndex
			for _, a := range added {
				p.cells[a].next = invalidIndex
				p.freeBuffers(a)
			}
			return tail, nil, corerr.NoBufs
		}
		p.cells[cur].next = idx
		cur = idx
		added = append(added, idx)
	}
	return cur, added, corerr.None
}
