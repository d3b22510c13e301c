package geom

// Box is an axis-aligned rectangle. It is an immutable value type: an
// updated box replaces the old one, it is never mutated in place.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func NewBox(minX, minY, maxX, maxY float64) Box {
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Valid reports whether min <= max on both axes.
func (b Box) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Empty reports whether the box has zero area.
func (b Box) Empty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY
}

func (b Box) Width() float64 {
	return b.MaxX - b.MinX
}

func (b Box) Height() float64 {
	return b.MaxY - b.MinY
}

// Intersects reports whether b and o share at least one point. Boxes that
// only touch on an edge intersect.
func (b Box) Intersects(o Box) bool {
	if b.MinX > o.MaxX || o.MinX > b.MaxX {
		return false
	}
	if b.MinY > o.MaxY || o.MinY > b.MaxY {
		return false
	}
	return true
}

// Contains reports whether o lies entirely within b.
func (b Box) Contains(o Box) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX &&
		o.MinY >= b.MinY && o.MaxY <= b.MaxY
}
