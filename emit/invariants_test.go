package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/wire"
)

// Invariant 1 & 2: every emitted frame decodes validly, is within
// MAX_FRAME_SIZE, and the sum of frame lengths equals the returned byte
// count, which never exceeds max_send_size.
func TestBytesEmittedMatchesFrameLengths(t *testing.T) {
	h := newHarness()
	for i := 0; i < 8; i++ {
		h.packetSender.Enqueue([]byte{byte(i), byte(i)}, 0, 0, 0, sender.Unreliable, 0)
	}

	e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, 0)
	var total int
	var frames [][]byte
	bytesEmitted := e.EmitDataFrames(0, 100, 10000, func(b []byte) {
		total += len(b)
		frames = append(frames, b)
	})

	require.Equal(t, total, bytesEmitted)
	require.LessOrEqual(t, bytesEmitted, 10000)
	for _, f := range frames {
		require.Greater(t, len(f), 0)
		require.LessOrEqual(t, len(f), wire.MaxFrameSize)
		_, err := wire.FrameKind(f)
		require.NoError(t, err)
	}
}

// Invariant 3: frame IDs assigned across successive flushes increase
// strictly monotonically from the Frame Queue's initial base.
func TestFrameIDsMonotonicAcrossFlushes(t *testing.T) {
	h := newHarness()
	var lastID uint32
	first := true
	for flushID := uint32(0); flushID < 3; flushID++ {
		h.packetSender.Enqueue([]byte{byte(flushID)}, 0, 0, 0, sender.Unreliable, 0)
		e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, flushID)
		e.EmitDataFrames(uint64(flushID), 100, 10000, func(b []byte) {
			id, _, _, err := wire.DecodeDataFrame(b)
			require.NoError(t, err)
			if !first {
				require.Greater(t, id, lastID)
			}
			lastID = id
			first = false
		})
	}
}
