package sender

// FragmentRef is a weak reference to one fragment of a packet: it does
// not keep the packet alive on its own. Queue entries and Frame Queue
// slots hold FragmentRefs rather than *PendingPacket so that a packet
// sitting in several queues at once (pending, resend, multiple frame
// slots) does not outlive the window that governs it.
type FragmentRef struct {
	store      *PacketStore
	sequenceID uint32
	generation uint64
	fragmentID uint16
}

// NewFragmentRef creates a weak reference to a fragment of a packet
// already owned by store.
func NewFragmentRef(store *PacketStore, p *PendingPacket, fragmentID uint16) FragmentRef {
	return FragmentRef{
		store:      store,
		sequenceID: p.sequenceID,
		generation: p.generation,
		fragmentID: fragmentID,
	}
}

// SequenceID returns the sequence ID of the packet this ref points at.
// Valid even after the reference has gone dead.
func (r FragmentRef) SequenceID() uint32 {
	return r.sequenceID
}

// FragmentID returns the fragment index this ref points at.
func (r FragmentRef) FragmentID() uint16 {
	return r.fragmentID
}

// Resolve upgrades the weak reference. ok is false if the packet has
// since been evicted from its store — the "gone" / tombstone case the
// specification describes; queue drains must treat this as a silent
// skip, never an error.
func (r FragmentRef) Resolve() (p *PendingPacket, ok bool) {
	return r.store.resolve(r.sequenceID, r.generation)
}
