package wire

import (
	"crypto/rand"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type frameKind uint8

const (
	kindData frameKind = iota
	kindAck
	kindSync
)

// dataFrameWire, ackFrameWire, and syncFrameWire are the on-the-wire
// envelopes. Numeric cursors are plain CBOR unsigned integers: CBOR's
// variable-width integer encoding means a field's encoded size depends
// on its magnitude, which is why DataFrameOverhead and SyncFrameSize
// (constants.go) are measured rather than assumed.
type dataFrameWire struct {
	Kind       frameKind
	SequenceID uint32
	Nonce      bool
	Datagrams  []Datagram
}

type ackFrameWire struct {
	Kind               frameKind
	FrameWindowBaseID  uint32
	PacketWindowBaseID uint32
	FrameIDs           []uint32
}

type syncFrameWire struct {
	Kind         frameKind
	HasFrameID   bool
	NextFrameID  uint32
	HasPacketID  bool
	NextPacketID uint32
}

func mustEncodedSize(v interface{}) int {
	b, err := cbor.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("wire: failed to measure encoded size of %T: %v", v, err))
	}
	return len(b)
}

// EncodedSize returns the number of bytes a single datagram occupies
// once encoded inside a data frame's Datagrams array. The frame packer
// uses this to decide whether a datagram fits the remaining budget
// before committing to add it.
func EncodedSize(dg Datagram) int {
	b, err := cbor.Marshal(dg)
	if err != nil {
		panic(fmt.Sprintf("wire: failed to encode datagram: %v", err))
	}
	return len(b)
}

// RandomNonce draws a single uniformly-random nonce bit from a
// cryptographic source, per the design note that nonces must not come
// from a predictable generator.
func RandomNonce() bool {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("wire: failed to read random nonce: %v", err))
	}
	return b[0]&1 == 1
}

// DataFrameBuilder accumulates datagrams into a single in-progress data
// frame, tracking its encoded size incrementally so the frame packer
// never has to re-encode the whole frame just to check whether it fits.
type DataFrameBuilder struct {
	frameID   uint32
	nonce     bool
	datagrams []Datagram
	size      int
}

// NewDataFrameBuilder opens a builder for a fresh frame, already counting
// the header as encoded with this frame's own ID and nonce.
func NewDataFrameBuilder(frameID uint32, nonce bool) *DataFrameBuilder {
	return &DataFrameBuilder{
		frameID: frameID,
		nonce:   nonce,
		size: mustEncodedSize(&dataFrameWire{
			Kind:       kindData,
			SequenceID: frameID,
			Nonce:      nonce,
		}),
	}
}

// Add appends a datagram to the builder and updates the running size.
func (b *DataFrameBuilder) Add(dg Datagram) {
	b.datagrams = append(b.datagrams, dg)
	b.size += EncodedSize(dg)
	// The array header widens as the element count crosses CBOR's
	// length thresholds.
	switch len(b.datagrams) {
	case 24, 256:
		b.size++
	case 65536:
		b.size += 2
	}
}

// Size returns the builder's current encoded size, were it built now.
func (b *DataFrameBuilder) Size() int {
	return b.size
}

// Build finalises the frame into wire bytes.
func (b *DataFrameBuilder) Build() []byte {
	out, err := cbor.Marshal(&dataFrameWire{
		Kind:       kindData,
		SequenceID: b.frameID,
		Nonce:      b.nonce,
		Datagrams:  b.datagrams,
	})
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build data frame: %v", err))
	}
	return out
}

// AckFrameBuilder accumulates peer frame IDs into a single ack frame.
type AckFrameBuilder struct {
	frameWindowBaseID  uint32
	packetWindowBaseID uint32
	frameIDs           []uint32
	size               int
}

// NewAckFrameBuilder opens a builder carrying the two window base IDs.
func NewAckFrameBuilder(frameWindowBaseID, packetWindowBaseID uint32) *AckFrameBuilder {
	b := &AckFrameBuilder{
		frameWindowBaseID:  frameWindowBaseID,
		packetWindowBaseID: packetWindowBaseID,
	}
	b.size = mustEncodedSize(&ackFrameWire{
		Kind:               kindAck,
		FrameWindowBaseID:  frameWindowBaseID,
		PacketWindowBaseID: packetWindowBaseID,
		FrameIDs:           nil,
	})
	return b
}

// EncodedSizeOfAck returns the marginal encoded size of one more frame ID
// entry in an ack frame.
func EncodedSizeOfAck(frameID uint32) int {
	b, err := cbor.Marshal(frameID)
	if err != nil {
		panic(fmt.Sprintf("wire: failed to encode frame ack: %v", err))
	}
	return len(b)
}

// Add appends a peer frame ID to the builder.
func (b *AckFrameBuilder) Add(frameID uint32) {
	b.frameIDs = append(b.frameIDs, frameID)
	b.size += EncodedSizeOfAck(frameID)
	// The array header widens as the element count crosses CBOR's
	// length thresholds.
	switch len(b.frameIDs) {
	case 24, 256:
		b.size++
	case 65536:
		b.size += 2
	}
}

// Size returns the builder's current encoded size.
func (b *AckFrameBuilder) Size() int {
	return b.size
}

// Count returns the number of frame IDs accumulated so far.
func (b *AckFrameBuilder) Count() int {
	return len(b.frameIDs)
}

// Build finalises the frame into wire bytes.
func (b *AckFrameBuilder) Build() []byte {
	out, err := cbor.Marshal(&ackFrameWire{
		Kind:               kindAck,
		FrameWindowBaseID:  b.frameWindowBaseID,
		PacketWindowBaseID: b.packetWindowBaseID,
		FrameIDs:           b.frameIDs,
	})
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build ack frame: %v", err))
	}
	return out
}

// EncodeSyncFrame serialises a sync frame carrying the two optional
// window cursors.
func EncodeSyncFrame(nextFrameID, nextPacketID *uint32) []byte {
	w := &syncFrameWire{Kind: kindSync}
	if nextFrameID != nil {
		w.HasFrameID = true
		w.NextFrameID = *nextFrameID
	}
	if nextPacketID != nil {
		w.HasPacketID = true
		w.NextPacketID = *nextPacketID
	}
	out, err := cbor.Marshal(w)
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build sync frame: %v", err))
	}
	return out
}

// FrameKind reports which of the three frame kinds a byte buffer holds,
// without fully decoding it. It is used by the session's receive path to
// dispatch before paying for a full decode.
func FrameKind(b []byte) (string, error) {
	var probe struct {
		Kind frameKind
	}
	if err := cbor.Unmarshal(b, &probe); err != nil {
		return "", newDecodeError("frame kind", err)
	}
	switch probe.Kind {
	case kindData:
		return "data", nil
	case kindAck:
		return "ack", nil
	case kindSync:
		return "sync", nil
	default:
		return "", newDecodeError("frame kind", fmt.Errorf("unknown frame kind %d", probe.Kind))
	}
}

// DecodeDataFrame decodes a data frame's sequence ID, nonce, and
// datagrams.
func DecodeDataFrame(b []byte) (sequenceID uint32, nonce bool, datagrams []Datagram, err error) {
	var w dataFrameWire
	if err := cbor.Unmarshal(b, &w); err != nil {
		return 0, false, nil, newDecodeError("data frame", err)
	}
	if w.Kind != kindData {
		return 0, false, nil, newDecodeError("data frame", fmt.Errorf("wrong frame kind %d", w.Kind))
	}
	return w.SequenceID, w.Nonce, w.Datagrams, nil
}

// DecodeAckFrame decodes an ack frame's window bases and frame ID list.
func DecodeAckFrame(b []byte) (frameWindowBaseID, packetWindowBaseID uint32, frameIDs []uint32, err error) {
	var w ackFrameWire
	if err := cbor.Unmarshal(b, &w); err != nil {
		return 0, 0, nil, newDecodeError("ack frame", err)
	}
	if w.Kind != kindAck {
		return 0, 0, nil, newDecodeError("ack frame", fmt.Errorf("wrong frame kind %d", w.Kind))
	}
	return w.FrameWindowBaseID, w.PacketWindowBaseID, w.FrameIDs, nil
}

// DecodeSyncFrame decodes a sync frame's two optional cursors.
func DecodeSyncFrame(b []byte) (nextFrameID, nextPacketID *uint32, err error) {
	var w syncFrameWire
	if err := cbor.Unmarshal(b, &w); err != nil {
		return nil, nil, newDecodeError("sync frame", err)
	}
	if w.Kind != kindSync {
		return nil, nil, newDecodeError("sync frame", fmt.Errorf("wrong frame kind %d", w.Kind))
	}
	if w.HasFrameID {
		id := w.NextFrameID
		nextFrameID = &id
	}
	if w.HasPacketID {
		id := w.NextPacketID
		nextPacketID = &id
	}
	return nextFrameID, nextPacketID, nil
}
