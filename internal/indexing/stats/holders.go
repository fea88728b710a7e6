package stats

import (
	"container/heap"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Holder is a tracked large holder.
type Holder struct {
	Address common.Address `json:"address"`
	HeldPct float64        `json:"held_pct"`
}

type holderItem struct {
	Holder
	index int
}

// holderHeap is a min-heap on held percentage, so the smallest holder is the
// one evicted when the set is full.
type holderHeap []*holderItem

func (h holderHeap) Len() int           { return len(h) }
func (h holderHeap) Less(i, j int) bool { return h[i].HeldPct < h[j].HeldPct }
func (h holderHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *holderHeap) Push(x any) {
	item := x.(*holderItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *holderHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// holderSet is a capacity-bounded set of holders above a threshold. Only
// wallets that traded are ever offered, so it is not an exact top-N.
type holderSet struct {
	threshold float64
	capacity  int
	heap      holderHeap
	byAddr    map[common.Address]*holderItem
}

func newHolderSet(threshold float64, capacity int) *holderSet {
	return &holderSet{
		threshold: threshold,
		capacity:  capacity,
		byAddr:    make(map[common.Address]*holderItem),
	}
}

// offer records the latest held percentage of addr and reports whether addr
// is in the set afterwards.
func (s *holderSet) offer(addr common.Address, pct float64) bool {
	item, present := s.byAddr[addr]

	if pct < s.threshold {
		if present {
			heap.Remove(&s.heap, item.index)
			delete(s.byAddr, addr)
		}
		return false
	}

	if present {
		item.HeldPct = pct
		heap.Fix(&s.heap, item.index)
		return true
	}

	if s.capacity <= 0 {
		return false
	}
	if s.heap.Len() >= s.capacity {
		if s.heap[0].HeldPct >= pct {
			return false
		}
		evicted := heap.Pop(&s.heap).(*holderItem)
		delete(s.byAddr, evicted.Address)
	}

	item = &holderItem{Holder: Holder{Address: addr, HeldPct: pct}}
	heap.Push(&s.heap, item)
	s.byAddr[addr] = item
	return true
}

func (s *holderSet) contains(addr common.Address) bool {
	_, ok := s.byAddr[addr]
	return ok
}

// sorted returns holders, largest first.
func (s *holderSet) sorted() []Holder {
	out := make([]Holder, 0, len(s.heap))
	for _, item := range s.heap {
		out = append(out, item.Holder)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeldPct > out[j].HeldPct })
	return out
}
