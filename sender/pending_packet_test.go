package sender

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lowquark/daten/wire"
)

func TestSplitFragmentsSingle(t *testing.T) {
	p := newPendingPacket(0, 0, 0, 0, []byte{1, 2, 3})
	require.Equal(t, uint16(0), p.LastFragmentID())

	dg := p.Datagram(0)
	require.Equal(t, []byte{1, 2, 3}, dg.Data)
	require.Equal(t, wire.FragmentID{ID: 0, Last: 0}, dg.FragmentID)
}

func TestSplitFragmentsEmptyData(t *testing.T) {
	p := newPendingPacket(0, 0, 0, 0, nil)
	require.Equal(t, uint16(0), p.LastFragmentID())
	require.Equal(t, []byte{}, p.Datagram(0).Data)
}

func TestSplitFragmentsMultiple(t *testing.T) {
	data := make([]byte, 2*wire.MaxFragmentSize+1)
	for i := range data {
		data[i] = byte(i)
	}
	p := newPendingPacket(3, 0, 0, 0, data)
	require.Equal(t, uint16(2), p.LastFragmentID())

	dg0 := p.Datagram(0)
	dg1 := p.Datagram(1)
	dg2 := p.Datagram(2)
	require.Len(t, dg0.Data, wire.MaxFragmentSize)
	require.Len(t, dg1.Data, wire.MaxFragmentSize)
	require.Len(t, dg2.Data, 1)
	require.Equal(t, data, append(append(dg0.Data, dg1.Data...), dg2.Data...))
}

func TestFragmentAcknowledgeIsIdempotent(t *testing.T) {
	p := newPendingPacket(0, 0, 0, 0, []byte{1})
	require.False(t, p.FragmentAcknowledged(0))
	p.Acknowledge(0)
	require.True(t, p.FragmentAcknowledged(0))
	p.Acknowledge(0)
	require.True(t, p.FragmentAcknowledged(0))
}
