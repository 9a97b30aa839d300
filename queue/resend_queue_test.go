package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lowquark/daten/sender"
)

func TestResendQueueOrdersByResendTime(t *testing.T) {
	store := sender.NewPacketStore()
	ps := sender.NewPacketSender(store, 10, 0)
	ps.Enqueue([]byte{1}, 0, 0, 0, sender.Resend, 0)
	ps.Enqueue([]byte{2}, 0, 0, 0, sender.Resend, 0)
	p0, _, _ := ps.EmitPacket(0)
	p1, _, _ := ps.EmitPacket(0)

	rq := NewResendQueue()
	rq.Push(ResendEntry{Ref: sender.NewFragmentRef(store, p0, 0), ResendTimeMs: 300, SendCount: 1})
	rq.Push(ResendEntry{Ref: sender.NewFragmentRef(store, p1, 0), ResendTimeMs: 100, SendCount: 1})

	first, ok := rq.Pop()
	require.True(t, ok)
	require.Equal(t, uint64(100), first.ResendTimeMs)
	require.Equal(t, p1.SequenceID(), first.Ref.SequenceID())

	second, ok := rq.Pop()
	require.True(t, ok)
	require.Equal(t, uint64(300), second.ResendTimeMs)

	_, ok = rq.Pop()
	require.False(t, ok)
}

func TestResendQueuePeekDoesNotRemove(t *testing.T) {
	rq := NewResendQueue()
	rq.Push(ResendEntry{ResendTimeMs: 5, SendCount: 0})
	_, ok := rq.Peek()
	require.True(t, ok)
	_, ok = rq.Peek()
	require.True(t, ok)
	require.Equal(t, 1, len(rq.h))
}
