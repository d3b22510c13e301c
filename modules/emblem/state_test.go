package emblem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreSet(t *testing.T) {
	var s store

	e := &Emblem{ElementID: 1, ParticipantID: 7, Name: "outline"}
	s.Set(e)

	got, ok := s.Get(1, "outline")
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestStoreSetReplaces(t *testing.T) {
	var s store

	s.Set(&Emblem{ElementID: 1, Name: "outline", Data: []byte("red")})
	s.Set(&Emblem{ElementID: 1, Name: "outline", Data: []byte("blue")})

	got, ok := s.Get(1, "outline")
	require.True(t, ok)
	require.Equal(t, []byte("blue"), got.Data)
	require.Len(t, s.All(), 1)
}

func TestStoreGet(t *testing.T) {
	var s store

	t.Run("unknown element", func(t *testing.T) {
		_, ok := s.Get(42, "outline")
		require.False(t, ok)
	})

	t.Run("unknown name", func(t *testing.T) {
		s.Set(&Emblem{ElementID: 42, Name: "outline"})
		_, ok := s.Get(42, "halo")
		require.False(t, ok)
	})
}

func TestStoreRemove(t *testing.T) {
	var s store

	require.False(t, s.Remove(1, "outline"))

	s.Set(&Emblem{ElementID: 1, Name: "outline"})
	require.True(t, s.Remove(1, "outline"))
	require.Empty(t, s.All())
}

func TestStoreRemoveByElement(t *testing.T) {
	var s store

	s.Set(&Emblem{ElementID: 1, Name: "outline"})
	s.Set(&Emblem{ElementID: 1, Name: "halo"})
	s.Set(&Emblem{ElementID: 2, Name: "outline"})

	s.RemoveByElement(1)
	require.Len(t, s.All(), 1)

	_, ok := s.Get(2, "outline")
	require.True(t, ok)
}
