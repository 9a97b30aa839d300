package sender

// SendMode governs how a packet's fragments are handled once first
// emitted.
type SendMode uint8

const (
	// Unreliable fragments are sent once and never retried.
	Unreliable SendMode = iota
	// Resend fragments are retried on an exponential-backoff timer until
	// acknowledged or skipped.
	Resend
	// TimeSensitive fragments are pending-only, like Unreliable, but are
	// dropped outright if the flush they are emitted under does not
	// match the flush they were enqueued under.
	TimeSensitive
)

type queuedPacket struct {
	sequenceID        uint32
	channelID         uint16
	windowParentLead  uint32
	channelParentLead uint32
	data              []byte
	mode              SendMode
	enqueueFlushID    uint32
}

// PacketSender is the source of new packets (C2): it assigns sequence
// IDs, holds newly enqueued packets that have not yet been admitted into
// the emission pipeline, and decides admissibility under the packet
// window and the TimeSensitive flush-ID gate.
type PacketSender struct {
	store *PacketStore

	windowSize uint32
	windowBase uint32

	nextSequenceID uint32
	queue          []*queuedPacket
}

// NewPacketSender creates a packet sender backed by store, with the
// given packet window size and initial sequence ID.
func NewPacketSender(store *PacketStore, windowSize uint32, baseSequenceID uint32) *PacketSender {
	return &PacketSender{
		store:          store,
		windowSize:     windowSize,
		windowBase:     baseSequenceID,
		nextSequenceID: baseSequenceID,
	}
}

// Enqueue admits a new application packet for eventual transmission,
// returning its assigned sequence ID. The packet is not yet split into
// fragments or visible to EmitPacket's window check until it reaches the
// front of the internal queue and the window admits it.
func (s *PacketSender) Enqueue(data []byte, channelID uint16, windowParentLead, channelParentLead uint32, mode SendMode, flushID uint32) uint32 {
	seq := s.nextSequenceID
	s.nextSequenceID++
	s.queue = append(s.queue, &queuedPacket{
		sequenceID:        seq,
		channelID:         channelID,
		windowParentLead:  windowParentLead,
		channelParentLead: channelParentLead,
		data:              data,
		mode:              mode,
		enqueueFlushID:    flushID,
	})
	return seq
}

// EmitPacket returns the next admissible packet for the given flush, or
// ok=false if the packet window is saturated or there is nothing left to
// admit. TimeSensitive packets whose enqueue flush ID does not match
// flushID are dropped here, silently, without ever being admitted.
func (s *PacketSender) EmitPacket(flushID uint32) (p *PendingPacket, resend bool, ok bool) {
	for len(s.queue) > 0 {
		head := s.queue[0]

		if head.mode == TimeSensitive && head.enqueueFlushID != flushID {
			s.queue = s.queue[1:]
			continue
		}

		if head.sequenceID-s.windowBase >= s.windowSize {
			// Window full; nothing later in the FIFO can be admitted
			// before this one either, since sequence IDs are monotone.
			return nil, false, false
		}

		s.queue = s.queue[1:]
		pkt := newPendingPacket(head.sequenceID, head.channelID, head.windowParentLead, head.channelParentLead, head.data)
		s.store.Insert(pkt)
		return pkt, head.mode == Resend, true
	}
	return nil, false, false
}

// WindowBase returns the lowest sequence ID still inside the packet
// window.
func (s *PacketSender) WindowBase() uint32 {
	return s.windowBase
}

// Acknowledge advances the packet window up to sequenceID. Every packet
// still outstanding between the old window base and sequenceID
// (exclusive) is evicted from the store — even though none of them was
// ever itself acknowledged — which is the packet-skip mechanism: weak
// references to those packets die, and any queue entries or
// resend-queue entries pointing at them are silently dropped on their
// next drain. sequenceID itself remains outstanding and keeps resending
// on its own schedule until it is actually acknowledged or skipped by a
// later call.
func (s *PacketSender) Acknowledge(sequenceID uint32) {
	if sequenceID < s.windowBase {
		return
	}
	for seq := s.windowBase; seq < sequenceID; seq++ {
		s.store.Evict(seq)
	}
	s.windowBase = sequenceID
}
