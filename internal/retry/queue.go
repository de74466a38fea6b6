package retry

import (
	"container/heap"
	"time"
)

// item is one scheduled chain in the delay queue
type item struct {
	webhookID string
	due       time.Time
	seq       uint64 // insertion order breaks ties between equal due times
	index     int
}

// itemHeap is a min-heap of items ordered by due time
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// delayQueue holds at most one entry per webhook id, ordered by due time. Not safe for concurrent use.
type delayQueue struct {
	items itemHeap
	byID  map[string]*item
	seq   uint64
}

func newDelayQueue() *delayQueue {
	return &delayQueue{byID: make(map[string]*item)}
}

// push adds or reschedules webhookID
func (q *delayQueue) push(webhookID string, due time.Time) {
	q.seq++
	if it, ok := q.byID[webhookID]; ok {
		it.due = due
		it.seq = q.seq
		heap.Fix(&q.items, it.index)
		return
	}

	it := &item{webhookID: webhookID, due: due, seq: q.seq}
	heap.Push(&q.items, it)
	q.byID[webhookID] = it
}

// remove drops webhookID, reporting whether it was queued
func (q *delayQueue) remove(webhookID string) bool {
	it, ok := q.byID[webhookID]
	if !ok {
		return false
	}
	heap.Remove(&q.items, it.index)
	delete(q.byID, webhookID)
	return true
}

// peek returns the earliest due time
func (q *delayQueue) peek() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].due, true
}

// popDue removes and returns every id due at or before now, earliest first
func (q *delayQueue) popDue(now time.Time) []string {
	var due []string
	for len(q.items) > 0 && !q.items[0].due.After(now) {
		it := heap.Pop(&q.items).(*item)
		delete(q.byID, it.webhookID)
		due = append(due, it.webhookID)
	}
	return due
}

func (q *delayQueue) len() int {
	return len(q.items)
}
