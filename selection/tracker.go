// Package selection computes frame-over-frame selection deltas for a
// rectangle dragged over indexed elements.
package selection

import (
	"github.com/dragnetlabs/dragnet/geom"
	"github.com/dragnetlabs/dragnet/quadtree"
)

// Predicate is the narrow phase: it decides whether the element behind h
// really intersects rect, typically against bounds that are tighter or
// fresher than the box stored in the index. A nil predicate accepts every
// coarse candidate.
type Predicate[H comparable] func(h H, rect geom.Box) bool

// Tracker diffs the selected set across refreshes. It holds no geometry
// of its own; candidates come from the index, membership from the
// predicate. Not safe for concurrent use.
type Tracker[H comparable] struct {
	index    *quadtree.Tree[H]
	narrow   Predicate[H]
	previous map[H]struct{}
}

func NewTracker[H comparable](index *quadtree.Tree[H], narrow Predicate[H]) *Tracker[H] {
	return &Tracker[H]{
		index:    index,
		narrow:   narrow,
		previous: make(map[H]struct{}),
	}
}

// Refresh recomputes the selected set for rect and returns what entered
// since the last refresh, what exited, and the full current set. An empty
// or malformed rect selects nothing, so everything previously selected
// exits. Refreshing with an unchanged world returns empty deltas.
func (t *Tracker[H]) Refresh(rect geom.Box) (entered, exited, current map[H]struct{}) {
	current = make(map[H]struct{})
	if rect.Valid() && !rect.Empty() {
		for h := range t.index.Query(rect) {
			if t.narrow != nil && !t.narrow(h, rect) {
				continue
			}
			current[h] = struct{}{}
		}
	}

	entered = make(map[H]struct{})
	for h := range current {
		if _, ok := t.previous[h]; !ok {
			entered[h] = struct{}{}
		}
	}
	exited = make(map[H]struct{})
	for h := range t.previous {
		if _, ok := current[h]; !ok {
			exited[h] = struct{}{}
		}
	}

	t.previous = current
	return entered, exited, current
}

// Len returns the size of the selected set as of the last refresh.
func (t *Tracker[H]) Len() int {
	return len(t.previous)
}

// Selected reports whether h was selected as of the last refresh.
func (t *Tracker[H]) Selected(h H) bool {
	_, ok := t.previous[h]
	return ok
}
