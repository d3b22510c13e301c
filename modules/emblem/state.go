package emblem

import (
	"sync"
)

type store struct {
	mutex   sync.RWMutex
	emblems map[uint32]map[string]*Emblem
}

func (s *store) Set(e *Emblem) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.emblems == nil {
		s.emblems = make(map[uint32]map[string]*Emblem)
	}

	emblems, ok := s.emblems[e.ElementID]
	if !ok {
		emblems = make(map[string]*Emblem)
		s.emblems[e.ElementID] = emblems
	}

	emblems[e.Name] = e
}

func (s *store) Get(elementID uint32, name string) (*Emblem, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	emblems, ok := s.emblems[elementID]
	if !ok {
		return nil, false
	}

	e, ok := emblems[name]
	return e, ok
}

func (s *store) Remove(elementID uint32, name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	emblems, ok := s.emblems[elementID]
	if !ok {
		return false
	}

	_, ok = emblems[name]
	delete(emblems, name)
	if len(emblems) == 0 {
		delete(s.emblems, elementID)
	}
	return ok
}

// RemoveByElement drops every emblem attached to an element.
func (s *store) RemoveByElement(elementID uint32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.emblems, elementID)
}

func (s *store) All() []*Emblem {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	all := make([]*Emblem, 0, len(s.emblems))
	for _, emblems := range s.emblems {
		for _, e := range emblems {
			all = append(all, e)
		}
	}
	return all
}
