package sender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFragmentRefDiesAfterEvict(t *testing.T) {
	store := NewPacketStore()
	p := newPendingPacket(0, 0, 0, 0, []byte{1})
	store.Insert(p)

	ref := NewFragmentRef(store, p, 0)
	_, ok := ref.Resolve()
	require.True(t, ok)

	store.Evict(0)
	_, ok = ref.Resolve()
	require.False(t, ok)
}

func TestFragmentRefDoesNotResolveAfterSequenceIDReuse(t *testing.T) {
	store := NewPacketStore()
	p0 := newPendingPacket(5, 0, 0, 0, []byte{1})
	store.Insert(p0)
	ref0 := NewFragmentRef(store, p0, 0)

	store.Evict(5)

	p1 := newPendingPacket(5, 0, 0, 0, []byte{2})
	store.Insert(p1)

	// The old reference must not resolve to the new packet occupying the
	// same sequence ID: generations never repeat.
	_, ok := ref0.Resolve()
	require.False(t, ok)

	ref1 := NewFragmentRef(store, p1, 0)
	resolved, ok := ref1.Resolve()
	require.True(t, ok)
	require.Same(t, p1, resolved)
}
