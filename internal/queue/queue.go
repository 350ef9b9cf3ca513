// Package queue implements the dispatch queue: a binary heap of pending
// dispatch tasks ordered so that the most urgent, most overdue notice is
// always at the head.
package queue

import (
	"container/heap"
	"time"
)

// Task is the minimal data placed on the queue. It is a copy taken at
// enqueue time — later notice mutations (a priority change, say) are not
// reflected in tasks already queued. The dispatcher re-fetches the notice
// by ID when the task comes due, keeping the store authoritative.
type Task struct {
	NoticeID  int64
	Priority  int
	PublishAt time.Time
}

// DispatchQueue orders tasks by (higher priority, earlier publish time,
// lower notice ID). The ID tie-break makes extraction order a stable total
// order, so tests are reproducible without wall-clock tricks.
//
// Stale entries — tasks whose notice has since been deleted, expired, or
// never actually published — are left in place and discarded on pop after
// re-validation against the store. Lazy deletion keeps push and pop at
// O(log n) without an arbitrary-removal structure.
type DispatchQueue struct {
	h taskHeap
}

func New() *DispatchQueue {
	return &DispatchQueue{}
}

func (q *DispatchQueue) Push(t Task) {
	heap.Push(&q.h, t)
}

// Peek returns the head task without removing it. ok is false when the
// queue is empty.
func (q *DispatchQueue) Peek() (Task, bool) {
	if len(q.h) == 0 {
		return Task{}, false
	}
	return q.h[0], true
}

// Pop removes and returns the head task. ok is false when the queue is empty.
func (q *DispatchQueue) Pop() (Task, bool) {
	if len(q.h) == 0 {
		return Task{}, false
	}
	return heap.Pop(&q.h).(Task), true
}

func (q *DispatchQueue) Len() int { return len(q.h) }

func (q *DispatchQueue) IsEmpty() bool { return len(q.h) == 0 }

type taskHeap []Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.PublishAt.Equal(b.PublishAt) {
		return a.PublishAt.Before(b.PublishAt)
	}
	return a.NoticeID < b.NoticeID
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}
