// Package queue provides a value-based binary heap of scored ids, used to
// keep the k best predictions during search.
package queue

// Item is a scored id.
type Item struct {
	ID    int32   // ID is the class or row the score belongs to.
	Score float32 // Score is the priority of the item in the queue.
}

// PriorityQueue is a binary heap of Items ordered by Score. A min-queue
// keeps the lowest score on top, which makes it a bounded "k best" set when
// used with PushBounded.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin initializes a new priority queue with minimum priority.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity)}
}

// NewMax initializes a new priority queue with maximum priority.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() { pq.items = pq.items[:0] }

// TopItem returns the top element of the heap.
func (pq *PriorityQueue) TopItem() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushBounded inserts item and then pops the top while more than k items
// are held. On a min-queue this keeps the k highest scores.
func (pq *PriorityQueue) PushBounded(item Item, k int) {
	pq.PushItem(item)
	for len(pq.items) > k {
		pq.PopItem()
	}
}

// PopItem removes and returns the top element while maintaining the heap invariant.
func (pq *PriorityQueue) PopItem() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Drain pops every item. Items come out in heap order: ascending scores
// for a min-queue, descending for a max-queue.
func (pq *PriorityQueue) Drain() []Item {
	out := make([]Item, 0, len(pq.items))
	for len(pq.items) > 0 {
		it, _ := pq.PopItem()
		out = append(out, it)
	}
	return out
}

// SortedDesc drains the queue and returns its items by descending score.
func (pq *PriorityQueue) SortedDesc() []Item {
	out := pq.Drain()
	if !pq.isMaxHeap {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[i].Score > pq.items[j].Score
	}
	return pq.items[i].Score < pq.items[j].Score
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
