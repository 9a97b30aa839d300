// Package wire implements the concrete encode/decode layer the emission
// core treats as opaque: datagrams, and the three frame kinds (data, ack,
// sync) that travel over the unreliable packet substrate.
package wire

// Wire-level size limits. These are the constants the emission core
// receives as opaque configuration; they are concrete here so the rest
// of the repository can run end to end.
const (
	// MaxFragmentSize is the largest payload a single fragment may carry.
	MaxFragmentSize = 1024

	// MaxFrameSize is the hard limit on any single encoded frame, data,
	// ack, or sync.
	MaxFrameSize = 4096

	// MaxFrameWindowSize bounds the number of frames the Frame Queue will
	// track as outstanding (unacknowledged) at once.
	MaxFrameWindowSize = 1024
)

// DataFrameOverhead is the encoded size of a data frame carrying zero
// datagrams, with frame ID 0. It is measured once at init time against the
// actual envelope below, rather than hand-counted, so it tracks the wire
// format if it changes. A frame ID of 24 or more encodes in up to four
// more bytes; DataFrameBuilder measures each frame's header with its own
// ID.
var DataFrameOverhead = mustEncodedSize(&dataFrameWire{
	Kind:       kindData,
	SequenceID: 0,
	Nonce:      false,
	Datagrams:  nil,
})

// SyncFrameSize is the encoded size a sync frame carrying two present
// cursors takes. CBOR's variable-width integers mean the true encoded
// size depends on the magnitude of the cursors; this is measured against
// the worst case (both cursors present, maximum magnitude) so that a
// caller's `SyncFrameSize > max_send_size` budget check is always safe —
// an actual sync frame never exceeds this bound.
var SyncFrameSize = mustEncodedSize(&syncFrameWire{
	Kind:         kindSync,
	HasFrameID:   true,
	NextFrameID:  ^uint32(0),
	HasPacketID:  true,
	NextPacketID: ^uint32(0),
})
