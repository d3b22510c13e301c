package lasso

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dragnetlabs/dragnet/geom"
	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/quadtree"
	"github.com/dragnetlabs/dragnet/selection"
)

// State holds a scene's spatial index and the per-participant selection
// trackers. All index mutation and refreshing happens under its mutex,
// driven from the scene frame loop.
type State struct {
	mutex    sync.Mutex
	scene    *models.Scene
	index    *quadtree.Tree[uint32]
	trackers map[uint32]*selection.Tracker[uint32]
	rects    map[uint32]geom.Box
}

func newState(scene *models.Scene, world geom.Box, minCell float64) (*State, error) {
	index, err := quadtree.New[uint32](world, minCell)
	if err != nil {
		return nil, errors.New("creating spatial index failed").Wrap(err)
	}

	return &State{
		scene:    scene,
		index:    index,
		trackers: make(map[uint32]*selection.Tracker[uint32]),
		rects:    make(map[uint32]geom.Box),
	}, nil
}

// SyncIndex drains the scene change journal and brings the index up to
// date: added and moved elements are reinserted with their current box,
// removed ones dropped. Elements whose box left the world region stay
// unindexed until they come back.
func (s *State) SyncIndex() {
	changes := s.scene.DrainChanges()
	if len(changes) == 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, c := range changes {
		id := c.Element.ID

		if s.index.Contains(id) {
			if err := s.index.Remove(id); err != nil {
				logs.WithTag("element_id", id).Warn(err)
				continue
			}
		}
		if c.Kind == models.ChangeRemove {
			continue
		}

		if err := s.index.Insert(id, c.Element.Box()); err != nil {
			logs.WithTag("element_id", id).
				WithTag("box", c.Element.Box()).
				Warn(errors.New("indexing element failed").Wrap(err))
		}
	}
}

// SetRect sets a participant's selection rectangle and ensures a tracker
// exists for them. The rectangle is matched against element boxes on the
// next frame refresh.
func (s *State) SetRect(participantID uint32, rect geom.Box) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.rects[participantID] = rect
	s.ensureTracker(participantID)
}

// ClearRect empties a participant's selection rectangle. Their tracker
// stays alive so the next refresh reports everything as exited.
func (s *State) ClearRect(participantID uint32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.trackers[participantID]; !ok {
		return
	}
	s.rects[participantID] = geom.Box{}
}

// Refresh recomputes the participant's selection against their current
// rectangle. active is false when the participant never set a rectangle.
func (s *State) Refresh(participantID uint32) (entered, exited, current map[uint32]struct{}, active bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tracker, ok := s.trackers[participantID]
	if !ok {
		return nil, nil, nil, false
	}

	entered, exited, current = tracker.Refresh(s.rects[participantID])
	return entered, exited, current, true
}

// Region runs a one-shot coarse query plus tight-bounds filter against
// rect. It does not disturb any tracked selection.
func (s *State) Region(rect geom.Box) []uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var ids []uint32
	for id := range s.index.Query(rect) {
		e, ok := s.scene.ElementByID(id)
		if !ok || !e.Box().Intersects(rect) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DropParticipant discards a participant's tracker and rectangle.
func (s *State) DropParticipant(participantID uint32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.trackers, participantID)
	delete(s.rects, participantID)
}

// IndexLen returns the number of indexed elements.
func (s *State) IndexLen() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.index.Len()
}

func (s *State) ensureTracker(participantID uint32) {
	if _, ok := s.trackers[participantID]; ok {
		return
	}

	// Narrow phase reads the element's live box, which may be fresher
	// than the one stored in the index.
	s.trackers[participantID] = selection.NewTracker(s.index, func(id uint32, rect geom.Box) bool {
		e, ok := s.scene.ElementByID(id)
		if !ok {
			return false
		}
		return e.Box().Intersects(rect)
	})
}
