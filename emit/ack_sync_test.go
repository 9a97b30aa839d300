package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lowquark/daten/wire"
)

func TestEmitAckFramesCarriesWindowBasesEvenWhenEmpty(t *testing.T) {
	h := newHarness()
	e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, 0)

	var frames [][]byte
	n := e.EmitAckFrames(3, 7, 10000, true, func(b []byte) { frames = append(frames, b) })
	require.Len(t, frames, 1)
	require.Greater(t, n, 0)

	frameBase, packetBase, ids, err := wire.DecodeAckFrame(frames[0])
	require.NoError(t, err)
	require.Equal(t, uint32(3), frameBase)
	require.Equal(t, uint32(7), packetBase)
	require.Empty(t, ids)
}

func TestEmitAckFramesWithoutMinOneProducesNothingWhenEmpty(t *testing.T) {
	h := newHarness()
	e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, 0)

	var frames [][]byte
	n := e.EmitAckFrames(0, 0, 10000, false, func(b []byte) { frames = append(frames, b) })
	require.Empty(t, frames)
	require.Equal(t, 0, n)
}

func TestEmitAckFramesDrainsFrameAckQueue(t *testing.T) {
	h := newHarness()
	h.frameAckQueue.Push(10)
	h.frameAckQueue.Push(11)
	h.frameAckQueue.Push(12)

	e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, 0)
	var frames [][]byte
	e.EmitAckFrames(0, 0, 10000, false, func(b []byte) { frames = append(frames, b) })
	require.Len(t, frames, 1)

	_, _, ids, err := wire.DecodeAckFrame(frames[0])
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 11, 12}, ids)
	require.True(t, h.frameAckQueue.IsEmpty())
}

func TestEmitSyncFrameRespectsBudget(t *testing.T) {
	h := newHarness()
	e := NewEmitter(h.store, h.packetSender, h.pendingQueue, h.resendQueue, h.frameQueue, h.frameAckQueue, 0)

	n := e.EmitSyncFrame(nil, nil, 0, func(b []byte) { t.Fatal("callback should not run") })
	require.Equal(t, 0, n)

	var frames [][]byte
	frameID := uint32(9)
	n = e.EmitSyncFrame(&frameID, nil, wire.SyncFrameSize, func(b []byte) { frames = append(frames, b) })
	require.Len(t, frames, 1)
	require.Equal(t, len(frames[0]), n)

	gotFrameID, gotPacketID, err := wire.DecodeSyncFrame(frames[0])
	require.NoError(t, err)
	require.Equal(t, frameID, *gotFrameID)
	require.Nil(t, gotPacketID)
}
