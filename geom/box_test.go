package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxValid(t *testing.T) {
	require.True(t, NewBox(0, 0, 10, 10).Valid())
	require.True(t, NewBox(5, 5, 5, 5).Valid())
	require.False(t, NewBox(10, 0, 0, 10).Valid())
	require.False(t, NewBox(0, 10, 10, 0).Valid())
}

func TestBoxEmpty(t *testing.T) {
	require.False(t, NewBox(0, 0, 10, 10).Empty())
	require.True(t, NewBox(5, 5, 5, 5).Empty())
	require.True(t, NewBox(0, 0, 10, 0).Empty())
}

func TestBoxIntersects(t *testing.T) {
	a := NewBox(0, 0, 10, 10)

	t.Run("overlapping boxes intersect", func(t *testing.T) {
		require.True(t, a.Intersects(NewBox(5, 5, 15, 15)))
		require.True(t, NewBox(5, 5, 15, 15).Intersects(a))
	})

	t.Run("contained box intersects", func(t *testing.T) {
		require.True(t, a.Intersects(NewBox(2, 2, 4, 4)))
	})

	t.Run("edge-touching boxes intersect", func(t *testing.T) {
		require.True(t, a.Intersects(NewBox(10, 0, 20, 10)))
		require.True(t, a.Intersects(NewBox(0, 10, 10, 20)))
	})

	t.Run("disjoint boxes do not intersect", func(t *testing.T) {
		require.False(t, a.Intersects(NewBox(11, 0, 20, 10)))
		require.False(t, a.Intersects(NewBox(0, 11, 10, 20)))
		require.False(t, a.Intersects(NewBox(-20, -20, -10, -10)))
	})
}

func TestBoxContains(t *testing.T) {
	a := NewBox(0, 0, 10, 10)

	require.True(t, a.Contains(NewBox(2, 2, 4, 4)))
	require.True(t, a.Contains(a))
	require.False(t, a.Contains(NewBox(5, 5, 15, 15)))
	require.False(t, a.Contains(NewBox(-1, 0, 5, 5)))
}

func TestBoxDimensions(t *testing.T) {
	b := NewBox(1, 2, 4, 8)
	require.Equal(t, 3.0, b.Width())
	require.Equal(t, 6.0, b.Height())
}
