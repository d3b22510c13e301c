// Package quadtree implements a bucketed 2D quadtree over axis-aligned
// boxes, keyed by opaque handles.
//
// Each entry is stored at the shallowest node whose region fully contains
// its box, so an entry never has to be listed in more than one bucket and
// a removal touches exactly one node. A side table maps every live handle
// to its owning node, which makes removal independent of tree depth.
package quadtree

import (
	"iter"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/dragnetlabs/dragnet/geom"
)

const (
	ErrTypeInvalidArgument = "invalid_argument"
	ErrTypeNotFound        = "not_found"
	ErrTypeDuplicateHandle = "duplicate_handle"
)

type entry[H comparable] struct {
	handle H
	box    geom.Box
}

// node quadrants are ordered NW, NE, SW, SE. Children are created lazily
// on the first insert that descends into them and are never pruned.
type node[H comparable] struct {
	region   geom.Box
	children [4]*node[H]
	bucket   []entry[H]
}

func (n *node[H]) quadrant(i int) geom.Box {
	midX := (n.region.MinX + n.region.MaxX) / 2
	midY := (n.region.MinY + n.region.MaxY) / 2

	switch i {
	case 0:
		return geom.NewBox(n.region.MinX, midY, midX, n.region.MaxY)
	case 1:
		return geom.NewBox(midX, midY, n.region.MaxX, n.region.MaxY)
	case 2:
		return geom.NewBox(n.region.MinX, n.region.MinY, midX, midY)
	default:
		return geom.NewBox(midX, n.region.MinY, n.region.MaxX, midY)
	}
}

// Tree is a spatial index over boxes. It is not safe for concurrent use;
// callers own synchronization.
type Tree[H comparable] struct {
	root    *node[H]
	minCell float64
	nodes   map[H]*node[H]
}

// New returns a tree covering world. minCell is the smallest node side
// length; descent stops once a node's region is at or below it.
func New[H comparable](world geom.Box, minCell float64) (*Tree[H], error) {
	if !world.Valid() || world.Empty() {
		return nil, errors.New("world region is not a valid non-empty box").
			WithType(ErrTypeInvalidArgument).
			WithTag("world", world)
	}
	if minCell <= 0 {
		return nil, errors.New("minimum cell size must be positive").
			WithType(ErrTypeInvalidArgument).
			WithTag("min_cell", minCell)
	}

	return &Tree[H]{
		root:    &node[H]{region: world},
		minCell: minCell,
		nodes:   make(map[H]*node[H]),
	}, nil
}

// Len returns the number of live handles.
func (t *Tree[H]) Len() int {
	return len(t.nodes)
}

// World returns the root region.
func (t *Tree[H]) World() geom.Box {
	return t.root.region
}

// Contains reports whether h is live in the index.
func (t *Tree[H]) Contains(h H) bool {
	_, ok := t.nodes[h]
	return ok
}

// Insert indexes box under h. The box must be well formed and intersect
// the world region, and h must not already be live. On error the tree is
// left unchanged.
func (t *Tree[H]) Insert(h H, box geom.Box) error {
	if !box.Valid() {
		return errors.New("box is malformed").
			WithType(ErrTypeInvalidArgument).
			WithTag("box", box)
	}
	if !box.Intersects(t.root.region) {
		return errors.New("box is entirely outside the world region").
			WithType(ErrTypeInvalidArgument).
			WithTag("box", box).
			WithTag("world", t.root.region)
	}
	if _, ok := t.nodes[h]; ok {
		return errors.New("handle is already indexed").
			WithType(ErrTypeDuplicateHandle).
			WithTag("handle", h)
	}

	n := t.root
descend:
	for n.region.Width() > t.minCell && n.region.Height() > t.minCell {
		for i := range n.children {
			if !n.quadrant(i).Contains(box) {
				continue
			}
			if n.children[i] == nil {
				n.children[i] = &node[H]{region: n.quadrant(i)}
			}
			n = n.children[i]
			continue descend
		}
		// The box straddles a quadrant boundary, so this node is the
		// shallowest one that fully contains it.
		break
	}

	n.bucket = append(n.bucket, entry[H]{handle: h, box: box})
	t.nodes[h] = n
	return nil
}

// Remove drops h from the index. Resolving the owning node goes through
// the side table, so the cost does not depend on tree depth. Emptied
// nodes stay in place for reuse.
func (t *Tree[H]) Remove(h H) error {
	n, ok := t.nodes[h]
	if !ok {
		return errors.New("handle is not indexed").
			WithType(ErrTypeNotFound).
			WithTag("handle", h)
	}

	for i := range n.bucket {
		if n.bucket[i].handle == h {
			n.bucket[i] = n.bucket[len(n.bucket)-1]
			n.bucket = n.bucket[:len(n.bucket)-1]
			break
		}
	}
	delete(t.nodes, h)
	return nil
}

// Box returns the stored box for h.
func (t *Tree[H]) Box(h H) (geom.Box, bool) {
	n, ok := t.nodes[h]
	if !ok {
		return geom.Box{}, false
	}
	for i := range n.bucket {
		if n.bucket[i].handle == h {
			return n.bucket[i].box, true
		}
	}
	return geom.Box{}, false
}

// Query returns a one-shot sequence of every handle whose stored box
// intersects rect. Subtrees whose region does not intersect rect are
// skipped entirely. Order is unspecified. The tree must not be mutated
// while the sequence is being consumed.
func (t *Tree[H]) Query(rect geom.Box) iter.Seq[H] {
	return func(yield func(H) bool) {
		if !rect.Valid() {
			return
		}
		t.root.query(rect, yield)
	}
}

func (n *node[H]) query(rect geom.Box, yield func(H) bool) bool {
	for i := range n.bucket {
		if !n.bucket[i].box.Intersects(rect) {
			continue
		}
		if !yield(n.bucket[i].handle) {
			return false
		}
	}
	for _, c := range n.children {
		if c == nil || !c.region.Intersects(rect) {
			continue
		}
		if !c.query(rect, yield) {
			return false
		}
	}
	return true
}
