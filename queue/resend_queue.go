package queue

import (
	"container/heap"

	"github.com/lowquark/daten/sender"
)

// MaxSendCount caps the exponential-backoff exponent (not the total
// number of retransmissions): a fragment resent MaxSendCount or more
// times keeps retrying at the same 2^MaxSendCount * rtt interval
// indefinitely, until acknowledged or skipped.
const MaxSendCount = 2

// ResendEntry is a fragment scheduled for timed retransmission.
type ResendEntry struct {
	Ref          sender.FragmentRef
	ResendTimeMs uint64
	SendCount    uint8
}

// ResendQueue is a priority queue of ResendEntry ordered by ResendTimeMs
// ascending, so the Emitter can cheaply ask "is anything due yet".
type ResendQueue struct {
	h resendHeap
}

// NewResendQueue creates an empty resend queue.
func NewResendQueue() *ResendQueue {
	return &ResendQueue{}
}

// Peek returns the earliest-due entry without removing it.
func (q *ResendQueue) Peek() (ResendEntry, bool) {
	if len(q.h) == 0 {
		return ResendEntry{}, false
	}
	return q.h[0], true
}

// Pop removes and returns the earliest-due entry.
func (q *ResendQueue) Pop() (ResendEntry, bool) {
	if len(q.h) == 0 {
		return ResendEntry{}, false
	}
	e := heap.Pop(&q.h).(ResendEntry)
	return e, true
}

// Push schedules a new resend entry.
func (q *ResendQueue) Push(e ResendEntry) {
	heap.Push(&q.h, e)
}

// resendHeap implements container/heap.Interface over []ResendEntry,
// ordered by ResendTimeMs so Peek/Pop always surface the earliest-due
// entry.
type resendHeap []ResendEntry

func (h resendHeap) Len() int { return len(h) }
func (h resendHeap) Less(i, j int) bool {
	return h[i].ResendTimeMs < h[j].ResendTimeMs
}
func (h resendHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resendHeap) Push(x interface{}) {
	*h = append(*h, x.(ResendEntry))
}

func (h *resendHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
