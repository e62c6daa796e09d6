// Priority frontier for the best-first searches. Entries are ordered
// by (priority, insertion sequence): the monotonically increasing
// sequence number is a strict tie-breaker that keeps equal-priority
// entries in first-in-first-out order, making expansion deterministic.
package beluga

import (
	"container/heap"
	"sort"
)

type frontierItem struct {
	state    *State
	priority float64
	seq      uint64
}

type frontierHeap []frontierItem

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) { *h = append(*h, x.(frontierItem)) }

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// frontier is the not-yet-expanded candidate set. It is owned by one
// search invocation and never shared.
type frontier struct {
	heap frontierHeap
	seq  uint64
}

func newFrontier() *frontier {
	return &frontier{}
}

func (f *frontier) push(s *State, priority float64) {
	heap.Push(&f.heap, frontierItem{state: s, priority: priority, seq: f.seq})
	f.seq++
}

func (f *frontier) pop() *State {
	return heap.Pop(&f.heap).(frontierItem).state
}

func (f *frontier) empty() bool {
	return len(f.heap) == 0
}

// reset discards all pending entries; the insertion sequence keeps
// counting so ordering stays stable across a restart reseed.
func (f *frontier) reset() {
	f.heap = f.heap[:0]
}

// stableSortByRank orders actions by an integer rank, preserving
// generation order within equal ranks.
func stableSortByRank(actions []Action, rank func(Action) int) {
	sort.SliceStable(actions, func(i, j int) bool {
		return rank(actions[i]) < rank(actions[j])
	})
}
