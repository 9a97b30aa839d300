// Package sender implements the Packet Sender (C2) and the Pending
// Packet store (C1): the source of new application packets, and the
// arena that holds their fragments while they are in flight.
package sender

import (
	"github.com/lowquark/daten/wire"
)

// PendingPacket is an application packet split into 1..=N fragments,
// each at most wire.MaxFragmentSize bytes, together with a per-fragment
// acknowledgement bitset. Once a fragment's bit is set it stays set.
type PendingPacket struct {
	sequenceID        uint32
	channelID         uint16
	windowParentLead  uint32
	channelParentLead uint32

	fragments []([]byte)
	acked     []bool

	generation uint64
}

func newPendingPacket(sequenceID uint32, channelID uint16, windowParentLead, channelParentLead uint32, data []byte) *PendingPacket {
	fragments := splitFragments(data)
	return &PendingPacket{
		sequenceID:        sequenceID,
		channelID:         channelID,
		windowParentLead:  windowParentLead,
		channelParentLead: channelParentLead,
		fragments:         fragments,
		acked:             make([]bool, len(fragments)),
	}
}

func splitFragments(data []byte) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}
	n := (len(data) + wire.MaxFragmentSize - 1) / wire.MaxFragmentSize
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := i * wire.MaxFragmentSize
		end := start + wire.MaxFragmentSize
		if end > len(data) {
			end = len(data)
		}
		out[i] = data[start:end]
	}
	return out
}

// SequenceID returns the packet's monotone sequence ID.
func (p *PendingPacket) SequenceID() uint32 {
	return p.sequenceID
}

// LastFragmentID returns the index of the packet's final fragment.
func (p *PendingPacket) LastFragmentID() uint16 {
	return uint16(len(p.fragments) - 1)
}

// Datagram builds the wire datagram for one fragment of this packet.
func (p *PendingPacket) Datagram(fragmentID uint16) wire.Datagram {
	return wire.Datagram{
		SequenceID:        p.sequenceID,
		ChannelID:         p.channelID,
		WindowParentLead:  p.windowParentLead,
		ChannelParentLead: p.channelParentLead,
		FragmentID: wire.FragmentID{
			ID:   fragmentID,
			Last: p.LastFragmentID(),
		},
		Data: p.fragments[fragmentID],
	}
}

// FragmentAcknowledged reports whether the given fragment has already
// been acknowledged.
func (p *PendingPacket) FragmentAcknowledged(fragmentID uint16) bool {
	return p.acked[fragmentID]
}

// Acknowledge marks a fragment as acknowledged. Idempotent: acknowledging
// an already-acknowledged fragment is a no-op, matching the invariant
// that an ack bit, once set, stays set.
func (p *PendingPacket) Acknowledge(fragmentID uint16) {
	p.acked[fragmentID] = true
}
