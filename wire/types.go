package wire

// FragmentID identifies a fragment's position within its packet: ID is
// the fragment's own index, Last is the index of the final fragment (so
// ID == Last marks the last fragment of the packet).
type FragmentID struct {
	ID   uint16
	Last uint16
}

// Datagram is one fragment-sized payload inside a data frame.
type Datagram struct {
	SequenceID        uint32
	ChannelID         uint16
	WindowParentLead  uint32
	ChannelParentLead uint32
	FragmentID        FragmentID
	Data              []byte
}

// AckGroup is the reconciliation descriptor the receiver returns for a
// contiguous run of frame IDs: Base is the lowest frame ID covered,
// Bitfield has bit i set iff frame Base+i is being acknowledged, and
// Nonce is the XOR of the nonces of every frame the bitfield claims.
type AckGroup struct {
	Base     uint32
	Bitfield uint64
	Nonce    bool
}
