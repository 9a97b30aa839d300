package queue

import (
	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/wire"
)

// frameSlot is the bookkeeping the Frame Queue keeps for one sent frame,
// until it is acknowledged or evicted for falling out of the window.
type frameSlot struct {
	size         int
	sentTimeMs   uint64
	fragmentRefs []sender.FragmentRef
	nonce        bool
}

// FrameQueue assigns outgoing frame IDs, tracks sent frames for ack
// reconciliation, and enforces the outstanding-frame window (C3).
type FrameQueue struct {
	nextID      uint32
	windowSize  uint32
	outstanding map[uint32]*frameSlot

	rateLimited bool
}

// NewFrameQueue creates a frame queue that will assign IDs starting at
// baseID, allowing at most windowSize frames to be outstanding
// (unacknowledged) at once.
func NewFrameQueue(baseID uint32, windowSize uint32) *FrameQueue {
	return &FrameQueue{
		nextID:      baseID,
		windowSize:  windowSize,
		outstanding: make(map[uint32]*frameSlot),
	}
}

// CanPush reports whether another frame can be admitted under the
// outstanding-frame window.
func (q *FrameQueue) CanPush() bool {
	return uint32(len(q.outstanding)) < q.windowSize
}

// NextID peeks the frame ID that Push will assign next, without
// consuming it. The frame packer needs this to build the frame header
// before the frame's final size (and hence whether to actually push it)
// is known.
func (q *FrameQueue) NextID() uint32 {
	return q.nextID
}

// Push registers a just-built frame, assigning it the next frame ID and
// returning that ID.
func (q *FrameQueue) Push(size int, nowMs uint64, fragmentRefs []sender.FragmentRef, nonce bool) uint32 {
	id := q.nextID
	q.nextID++
	q.outstanding[id] = &frameSlot{
		size:         size,
		sentTimeMs:   nowMs,
		fragmentRefs: fragmentRefs,
		nonce:        nonce,
	}
	return id
}

// MarkRateLimited records that this flush terminated because the byte
// budget, not the queues, ran out. Cleared by ResetRateLimited, which
// the caller should invoke at the start of each flush.
func (q *FrameQueue) MarkRateLimited() {
	q.rateLimited = true
}

// RateLimited reports whether MarkRateLimited has been called since the
// last ResetRateLimited.
func (q *FrameQueue) RateLimited() bool {
	return q.rateLimited
}

// ResetRateLimited clears the rate-limited flag; call once per flush,
// before emitting.
func (q *FrameQueue) ResetRateLimited() {
	q.rateLimited = false
}

// AcknowledgeGroup reconciles a peer-reported ack group against the
// outstanding frames: for every bit set in the bitfield whose
// corresponding frame is still outstanding, the nonces of those frames
// are XORed and compared against group.Nonce before anything is applied,
// guarding against a spoofed or stale ack group claiming frames it
// cannot have actually seen. On a match, every fragment referenced by an
// acknowledged frame has its ack bit set on its underlying packet (via
// the fragment's weak reference — already-evicted packets are silently
// skipped), and the frame's slot is freed.
func (q *FrameQueue) AcknowledgeGroup(group wire.AckGroup, rttSampleMs *uint64) bool {
	var matched []uint32
	var nonceXOR bool

	for i := 0; i < 64; i++ {
		if group.Bitfield&(uint64(1)<<uint(i)) == 0 {
			continue
		}
		id := group.Base + uint32(i)
		// A claimed frame ID already outside the outstanding set (acked
		// by an earlier, overlapping group) contributes nothing further
		// here; re-acknowledging it is a no-op regardless.
		slot, ok := q.outstanding[id]
		if !ok {
			continue
		}
		nonceXOR = nonceXOR != slot.nonce
		matched = append(matched, id)
	}

	if nonceXOR != group.Nonce {
		return false
	}

	for _, id := range matched {
		slot := q.outstanding[id]
		for _, ref := range slot.fragmentRefs {
			if p, ok := ref.Resolve(); ok {
				p.Acknowledge(ref.FragmentID())
			}
		}
		delete(q.outstanding, id)
	}
	return true
}

// AcknowledgeIDs applies acknowledgment to every outstanding frame named
// explicitly in ids, the same way AcknowledgeGroup's apply phase does.
// It is the counterpart for the flat frame-ID list an ack frame actually
// carries on the wire (see wire.DecodeAckFrame): that list has no
// bitfield or nonce to validate, so there is nothing to check here
// beyond whether each named ID is still outstanding. IDs already absent
// (acknowledged earlier, or never sent) are silently skipped.
func (q *FrameQueue) AcknowledgeIDs(ids []uint32) {
	for _, id := range ids {
		slot, ok := q.outstanding[id]
		if !ok {
			continue
		}
		for _, ref := range slot.fragmentRefs {
			if p, ok := ref.Resolve(); ok {
				p.Acknowledge(ref.FragmentID())
			}
		}
		delete(q.outstanding, id)
	}
}

// SkipBelow discards every outstanding frame slot whose ID is strictly
// below id, without marking their fragments acknowledged. This is the
// frame-window analogue of PacketSender.Acknowledge: it lets a sync
// frame's advertised window cursor drop stale bookkeeping for frames the
// peer has moved past, the same way a packet-window advance drops
// bookkeeping for skipped packets.
func (q *FrameQueue) SkipBelow(id uint32) {
	for fid := range q.outstanding {
		if fid < id {
			delete(q.outstanding, fid)
		}
	}
}
