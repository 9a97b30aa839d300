package emit

import (
	"github.com/lowquark/daten/queue"
	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/wire"
)

// Emitter orchestrates one flush: drain eligible resend entries, then
// pending entries (pulling new packets from the Packet Sender as
// needed), then ack frames and an optional sync frame (C7).
type Emitter struct {
	store         *sender.PacketStore
	packetSender  *sender.PacketSender
	pendingQueue  *queue.PendingQueue
	resendQueue   *queue.ResendQueue
	frameQueue    *queue.FrameQueue
	frameAckQueue *queue.FrameAckQueue
	flushID       uint32

	fragmentsResent int
}

// NewEmitter builds an Emitter over the given components for one flush
// ID. A fresh Emitter is cheap to construct; callers typically build one
// per flush.
func NewEmitter(
	store *sender.PacketStore,
	packetSender *sender.PacketSender,
	pendingQueue *queue.PendingQueue,
	resendQueue *queue.ResendQueue,
	frameQueue *queue.FrameQueue,
	frameAckQueue *queue.FrameAckQueue,
	flushID uint32,
) *Emitter {
	return &Emitter{
		store:         store,
		packetSender:  packetSender,
		pendingQueue:  pendingQueue,
		resendQueue:   resendQueue,
		frameQueue:    frameQueue,
		frameAckQueue: frameAckQueue,
		flushID:       flushID,
	}
}

// FragmentsResent reports how many fragments drainResend successfully
// repacked and rescheduled during the EmitDataFrames call on this
// Emitter. A fresh Emitter is built per flush, so this is always a
// single flush's count.
func (e *Emitter) FragmentsResent() int {
	return e.fragmentsResent
}

// EmitDataFrames runs one flush of the resend-then-pending drain,
// handing each built frame to callback, and returns the total bytes
// emitted.
func (e *Emitter) EmitDataFrames(nowMs, rttMs uint64, maxSendSize int, callback func([]byte)) int {
	packer := newDataFramePacker(nowMs, e.frameQueue, maxSendSize, callback)

	if done, bytesEmitted := e.drainResend(packer, nowMs, rttMs); done {
		return bytesEmitted
	}

	for {
		if e.pendingQueue.IsEmpty() {
			packet, resend, ok := e.packetSender.EmitPacket(e.flushID)
			if !ok {
				break
			}
			for i := 0; i <= int(packet.LastFragmentID()); i++ {
				ref := sender.NewFragmentRef(e.store, packet, uint16(i))
				e.pendingQueue.PushBack(queue.PendingEntry{Ref: ref, Resend: resend})
			}
		}

		done, bytesEmitted := e.drainPending(packer, nowMs, rttMs)
		if done {
			return bytesEmitted
		}
	}

	packer.flush()
	return packer.totalSize()
}

// drainResend runs Phase A: every resend-queue entry due by nowMs is
// (re)packed and rescheduled with exponential backoff. Returns
// (true, bytesEmitted) the instant a push fails — the packer has
// already flushed any in-progress frame, and the failed entry is left
// at the head of the resend queue for a later flush, never re-enqueued
// under a new schedule.
func (e *Emitter) drainResend(packer *dataFramePacker, nowMs, rttMs uint64) (done bool, bytesEmitted int) {
	for {
		entry, ok := e.resendQueue.Peek()
		if !ok {
			return false, 0
		}

		packet, alive := entry.Ref.Resolve()
		if !alive {
			e.resendQueue.Pop()
			continue
		}

		if packet.FragmentAcknowledged(entry.Ref.FragmentID()) {
			e.resendQueue.Pop()
			continue
		}

		if entry.ResendTimeMs > nowMs {
			return false, 0
		}

		if err := packer.push(packet, entry.Ref, entry.Ref.FragmentID(), true); err != nil {
			_ = err
			return true, packer.totalSize()
		}

		popped, _ := e.resendQueue.Pop()
		e.fragmentsResent++
		sendCount := popped.SendCount
		if sendCount > queue.MaxSendCount {
			sendCount = queue.MaxSendCount
		}
		nextResendTime := nowMs + rttMs*(uint64(1)<<sendCount)
		newCount := sendCount + 1
		if newCount > queue.MaxSendCount {
			newCount = queue.MaxSendCount
		}
		e.resendQueue.Push(queue.ResendEntry{
			Ref:          popped.Ref,
			ResendTimeMs: nextResendTime,
			SendCount:    newCount,
		})
	}
}

// drainPending runs one pass of Phase B's inner loop: while the pending
// queue has a head, resolve and pack it. Returns (true, bytesEmitted) if
// a push failed and the whole flush must stop now.
func (e *Emitter) drainPending(packer *dataFramePacker, nowMs, rttMs uint64) (done bool, bytesEmitted int) {
	for {
		entry, ok := e.pendingQueue.Front()
		if !ok {
			return false, 0
		}

		packet, alive := entry.Ref.Resolve()
		if !alive {
			e.pendingQueue.PopFront()
			continue
		}

		if packet.FragmentAcknowledged(entry.Ref.FragmentID()) {
			e.pendingQueue.PopFront()
			continue
		}

		if err := packer.push(packet, entry.Ref, entry.Ref.FragmentID(), entry.Resend); err != nil {
			_ = err
			return true, packer.totalSize()
		}

		popped, _ := e.pendingQueue.PopFront()
		if popped.Resend {
			e.resendQueue.Push(queue.ResendEntry{
				Ref:          popped.Ref,
				ResendTimeMs: nowMs + rttMs,
				SendCount:    1,
			})
		}
	}
}

// EmitAckFrames packs pending peer frame IDs from the Frame-Ack Queue
// into one or more ack frames, returning bytes emitted. If minOne is
// true, at least one ack frame is produced even when there is nothing
// to acknowledge, so the window base IDs still reach the peer.
func (e *Emitter) EmitAckFrames(frameWindowBaseID, packetWindowBaseID uint32, maxSendSize int, minOne bool, callback func([]byte)) int {
	bytesRemaining := maxSendSize
	frameSent := false

	builder := wire.NewAckFrameBuilder(frameWindowBaseID, packetWindowBaseID)
	if builder.Size() > bytesRemaining {
		return 0
	}

	for {
		frameID, ok := e.frameAckQueue.Peek()
		if !ok {
			break
		}

		potential := builder.Size() + wire.EncodedSizeOfAck(frameID)

		if potential > bytesRemaining {
			if builder.Count() > 0 || (minOne && !frameSent) {
				data := builder.Build()
				bytesRemaining -= len(data)
				callback(data)
			}
			return maxSendSize - bytesRemaining
		}

		if potential > wire.MaxFrameSize {
			data := builder.Build()
			bytesRemaining -= len(data)
			frameSent = true
			callback(data)

			builder = wire.NewAckFrameBuilder(frameWindowBaseID, packetWindowBaseID)
			continue
		}

		builder.Add(frameID)
		e.frameAckQueue.Pop()
	}

	if builder.Count() > 0 || (minOne && !frameSent) {
		data := builder.Build()
		bytesRemaining -= len(data)
		callback(data)
	}

	return maxSendSize - bytesRemaining
}

// EmitSyncFrame serialises a single sync frame carrying the optional
// window-cursor advisories, if it fits the budget, and returns the
// frame's encoded length (at most wire.SyncFrameSize).
func (e *Emitter) EmitSyncFrame(nextFrameID, nextPacketID *uint32, maxSendSize int, callback func([]byte)) int {
	if wire.SyncFrameSize > maxSendSize {
		return 0
	}
	data := wire.EncodeSyncFrame(nextFrameID, nextPacketID)
	callback(data)
	return len(data)
}
