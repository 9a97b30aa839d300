// Package queue implements the Pending Queue, Resend Queue, Frame Queue,
// and Frame-Ack Queue (C3–C5): the bookkeeping the Emitter drains and
// refills on every flush.
package queue

import "github.com/lowquark/daten/sender"

// PendingEntry is one fragment reference awaiting its first transmission
// attempt. Resend controls whether a successful first send also
// schedules the fragment into the Resend Queue.
type PendingEntry struct {
	Ref    sender.FragmentRef
	Resend bool
}

// PendingQueue is the FIFO of fragments awaiting first-try transmission.
type PendingQueue struct {
	entries []PendingEntry
}

// NewPendingQueue creates an empty pending queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// IsEmpty reports whether the queue has no entries.
func (q *PendingQueue) IsEmpty() bool {
	return len(q.entries) == 0
}

// PushBack appends an entry to the tail of the queue.
func (q *PendingQueue) PushBack(e PendingEntry) {
	q.entries = append(q.entries, e)
}

// Front returns the head entry without removing it, and false if the
// queue is empty.
func (q *PendingQueue) Front() (PendingEntry, bool) {
	if len(q.entries) == 0 {
		return PendingEntry{}, false
	}
	return q.entries[0], true
}

// PopFront removes and returns the head entry.
func (q *PendingQueue) PopFront() (PendingEntry, bool) {
	e, ok := q.Front()
	if !ok {
		return PendingEntry{}, false
	}
	q.entries = q.entries[1:]
	return e, true
}
