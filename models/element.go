package models

import (
	"sync"

	"github.com/dragnetlabs/dragnet/geom"
	"github.com/dragnetlabs/dragnet/wire"
)

// Element is a scene object with a bounding box. Dynamic elements are
// expected to move often; static ones rarely or never.
type Element struct {
	ID            uint32
	ParticipantID uint32
	Persist       bool
	Dynamic       bool

	mutex sync.RWMutex
	box   geom.Box
}

// SetBox replaces the element's bounds. These are the true bounds;
// spatial indexes catch up on their own cadence.
func (e *Element) SetBox(v geom.Box) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.box = v
}

func (e *Element) Box() geom.Box {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.box
}

func (e *Element) ToWire() *wire.Element {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return &wire.Element{
		ID:            e.ID,
		ParticipantID: e.ParticipantID,
		Box:           wire.BoxFromGeom(e.box),
		Dynamic:       e.Dynamic,
	}
}

func ElementsToWire(elements []*Element) []*wire.Element {
	res := make([]*wire.Element, len(elements))
	for i, e := range elements {
		res[i] = e.ToWire()
	}
	return res
}
