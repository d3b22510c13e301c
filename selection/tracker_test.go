package selection

import (
	"testing"

	"github.com/dragnetlabs/dragnet/geom"
	"github.com/dragnetlabs/dragnet/quadtree"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *quadtree.Tree[string] {
	t.Helper()

	tree, err := quadtree.New[string](geom.NewBox(0, 0, 400, 300), 20)
	require.NoError(t, err)
	return tree
}

func TestRefreshDiff(t *testing.T) {
	tree := newTestIndex(t)
	require.NoError(t, tree.Insert("A", geom.NewBox(10, 10, 20, 20)))
	require.NoError(t, tree.Insert("B", geom.NewBox(200, 200, 210, 210)))

	tracker := NewTracker(tree, nil)

	t.Run("first refresh reports everything as entered", func(t *testing.T) {
		entered, exited, current := tracker.Refresh(geom.NewBox(0, 0, 50, 50))
		require.Equal(t, map[string]struct{}{"A": {}}, entered)
		require.Empty(t, exited)
		require.Equal(t, map[string]struct{}{"A": {}}, current)
		require.True(t, tracker.Selected("A"))
		require.False(t, tracker.Selected("B"))
	})

	t.Run("refresh with an unchanged world is idempotent", func(t *testing.T) {
		entered, exited, current := tracker.Refresh(geom.NewBox(0, 0, 50, 50))
		require.Empty(t, entered)
		require.Empty(t, exited)
		require.Equal(t, map[string]struct{}{"A": {}}, current)
	})

	t.Run("moved element exits on the next refresh", func(t *testing.T) {
		require.NoError(t, tree.Remove("A"))
		require.NoError(t, tree.Insert("A", geom.NewBox(100, 100, 110, 110)))

		entered, exited, current := tracker.Refresh(geom.NewBox(0, 0, 50, 50))
		require.Empty(t, entered)
		require.Equal(t, map[string]struct{}{"A": {}}, exited)
		require.Empty(t, current)
		require.Zero(t, tracker.Len())
	})

	t.Run("growing the rectangle reports new entries", func(t *testing.T) {
		entered, exited, current := tracker.Refresh(geom.NewBox(0, 0, 250, 250))
		require.Equal(t, map[string]struct{}{"A": {}, "B": {}}, entered)
		require.Empty(t, exited)
		require.Len(t, current, 2)
	})
}

func TestRefreshEmptyRect(t *testing.T) {
	tree := newTestIndex(t)
	require.NoError(t, tree.Insert("A", geom.NewBox(10, 10, 20, 20)))

	tracker := NewTracker(tree, nil)
	_, _, current := tracker.Refresh(geom.NewBox(0, 0, 50, 50))
	require.Len(t, current, 1)

	t.Run("zero-area rect clears the selection", func(t *testing.T) {
		entered, exited, current := tracker.Refresh(geom.Box{})
		require.Empty(t, entered)
		require.Equal(t, map[string]struct{}{"A": {}}, exited)
		require.Empty(t, current)
	})

	t.Run("malformed rect selects nothing", func(t *testing.T) {
		entered, exited, current := tracker.Refresh(geom.NewBox(50, 50, 0, 0))
		require.Empty(t, entered)
		require.Empty(t, exited)
		require.Empty(t, current)
	})
}

func TestRefreshNarrowPhase(t *testing.T) {
	tree := newTestIndex(t)
	// Stored boxes are stale and oversized; the predicate checks tight
	// bounds kept outside the index.
	tight := map[string]geom.Box{
		"A": geom.NewBox(10, 10, 20, 20),
		"B": geom.NewBox(45, 45, 55, 55),
	}
	require.NoError(t, tree.Insert("A", geom.NewBox(0, 0, 40, 40)))
	require.NoError(t, tree.Insert("B", geom.NewBox(20, 20, 60, 60)))

	tracker := NewTracker(tree, func(h string, rect geom.Box) bool {
		return tight[h].Intersects(rect)
	})

	entered, exited, current := tracker.Refresh(geom.NewBox(0, 0, 30, 30))
	require.Equal(t, map[string]struct{}{"A": {}}, entered)
	require.Empty(t, exited)
	require.Equal(t, map[string]struct{}{"A": {}}, current)

	// B's tight bounds slide into range without the index changing.
	tight["B"] = geom.NewBox(25, 25, 35, 35)
	entered, exited, current = tracker.Refresh(geom.NewBox(0, 0, 30, 30))
	require.Equal(t, map[string]struct{}{"B": {}}, entered)
	require.Empty(t, exited)
	require.Len(t, current, 2)
}
