package emit

import (
	"github.com/lowquark/daten/queue"
	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/wire"
)

type inProgressFrame struct {
	nonce        bool
	builder      *wire.DataFrameBuilder
	fragmentRefs []sender.FragmentRef
}

// dataFramePacker maintains at most one in-progress data frame across
// successive Push calls within a single flush (C6).
type dataFramePacker struct {
	nowMs      uint64
	frameQueue *queue.FrameQueue

	inProgress *inProgressFrame

	maxSendSize    int
	bytesRemaining int

	callback func([]byte)
}

func newDataFramePacker(nowMs uint64, frameQueue *queue.FrameQueue, maxSendSize int, callback func([]byte)) *dataFramePacker {
	return &dataFramePacker{
		nowMs:          nowMs,
		frameQueue:     frameQueue,
		maxSendSize:    maxSendSize,
		bytesRemaining: maxSendSize,
		callback:       callback,
	}
}

func (p *dataFramePacker) pushInitial(packet *sender.PendingPacket, ref sender.FragmentRef, fragmentID uint16, persistent bool) error {
	if !p.frameQueue.CanPush() {
		return ErrWindowLimited
	}

	datagram := packet.Datagram(fragmentID)
	encodedSize := wire.EncodedSize(datagram)

	frameID := p.frameQueue.NextID()
	nonce := wire.RandomNonce()

	builder := wire.NewDataFrameBuilder(frameID, nonce)
	potential := builder.Size() + encodedSize

	if potential > p.bytesRemaining {
		p.frameQueue.MarkRateLimited()
		return ErrSizeLimited
	}

	builder.Add(datagram)

	var refs []sender.FragmentRef
	if persistent {
		refs = append(refs, ref)
	}

	p.inProgress = &inProgressFrame{
		nonce:        nonce,
		builder:      builder,
		fragmentRefs: refs,
	}
	return nil
}

// push adds one fragment's datagram to the in-progress frame, opening a
// new one (and flushing the old) if necessary.
func (p *dataFramePacker) push(packet *sender.PendingPacket, ref sender.FragmentRef, fragmentID uint16, persistent bool) error {
	datagram := packet.Datagram(fragmentID)

	if p.inProgress == nil {
		return p.pushInitial(packet, ref, fragmentID, persistent)
	}

	encodedSize := wire.EncodedSize(datagram)
	potential := p.inProgress.builder.Size() + encodedSize

	switch {
	case potential > wire.MaxFrameSize:
		p.flush()
		return p.pushInitial(packet, ref, fragmentID, persistent)
	case potential > p.bytesRemaining:
		p.flush()
		p.frameQueue.MarkRateLimited()
		return ErrSizeLimited
	default:
		p.inProgress.builder.Add(datagram)
		if persistent {
			p.inProgress.fragmentRefs = append(p.inProgress.fragmentRefs, ref)
		}
		return nil
	}
}

// flush finalises the in-progress frame, if any, registers it with the
// Frame Queue, and hands its bytes to the callback.
func (p *dataFramePacker) flush() {
	if p.inProgress == nil {
		return
	}
	frame := p.inProgress
	p.inProgress = nil

	data := frame.builder.Build()
	p.frameQueue.Push(len(data), p.nowMs, frame.fragmentRefs, frame.nonce)

	p.bytesRemaining -= len(data)
	p.callback(data)
}

// totalSize returns the number of bytes emitted so far.
func (p *dataFramePacker) totalSize() int {
	return p.maxSendSize - p.bytesRemaining
}
