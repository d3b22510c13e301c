package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dragnetlabs/dragnet/wire"
	"github.com/google/uuid"
)

// ChangeKind tags an entry of a scene's element change journal.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeMove
	ChangeRemove
)

// ElementChange records that an element was added to, moved within, or
// removed from a scene since the journal was last drained.
type ElementChange struct {
	Element *Element
	Kind    ChangeKind
}

// Scene represents a scene that contains elements and participants who
// can communicate between each other.
type Scene struct {
	ID        uint32
	SceneUUID string

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant

	elementIDs   SequentialIDGenerator
	elementMutex sync.RWMutex
	elements     map[uint32]*Element

	changeMutex sync.Mutex
	changes     []ElementChange

	moduleStates map[string]any
	moduleMutex  sync.RWMutex

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs SequentialIDGenerator
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
}

func NewScene(id uint32, frameDuration time.Duration) *Scene {
	return &Scene{
		ID:             id,
		SceneUUID:      uuid.New().String(),
		closeFrameChan: make(chan struct{}, 1),
		frameTicker:    time.NewTicker(frameDuration),
		participants:   make(map[uint32]*Participant),
		elements:       make(map[uint32]*Element),
		moduleStates:   make(map[string]any),
		frameHandlers:  make(map[uint32]func()),
	}
}

func (s *Scene) Close() {
	s.closeOnce.Do(func() {
		s.frameTicker.Stop()
		s.closeFrameChan <- struct{}{}
	})
}

func (s *Scene) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

func (s *Scene) AddParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	s.participants[p.ID] = p
}

func (s *Scene) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	delete(s.participants, p.ID)
}

func (s *Scene) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}
	return participants
}

func (s *Scene) GetParticipantsByIDs(ids ...uint32) []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := s.participants[id]
		if ok {
			participants = append(participants, p)
		}
	}
	return participants
}

func (s *Scene) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

func (s *Scene) NewElementID() uint32 {
	return s.elementIDs.New()
}

func (s *Scene) AddElement(e *Element) {
	s.elementMutex.Lock()
	s.elements[e.ID] = e
	s.elementMutex.Unlock()

	s.recordChange(e, ChangeAdd)
}

func (s *Scene) RemoveElement(e *Element) {
	s.elementMutex.Lock()
	delete(s.elements, e.ID)
	s.elementMutex.Unlock()

	s.recordChange(e, ChangeRemove)
}

// TouchElement journals that e's box changed. Callers update the box
// first, then touch.
func (s *Scene) TouchElement(e *Element) {
	s.recordChange(e, ChangeMove)
}

func (s *Scene) recordChange(e *Element, kind ChangeKind) {
	s.changeMutex.Lock()
	defer s.changeMutex.Unlock()

	s.changes = append(s.changes, ElementChange{Element: e, Kind: kind})
}

// DrainChanges returns the journal entries accumulated since the last
// drain, oldest first, and resets the journal. Spatial consumers drain
// once per frame instead of rescanning every element.
func (s *Scene) DrainChanges() []ElementChange {
	s.changeMutex.Lock()
	defer s.changeMutex.Unlock()

	changes := s.changes
	s.changes = nil
	return changes
}

func (s *Scene) ElementByID(id uint32) (*Element, bool) {
	s.elementMutex.RLock()
	defer s.elementMutex.RUnlock()

	e, ok := s.elements[id]
	return e, ok
}

func (s *Scene) Elements() []*Element {
	s.elementMutex.RLock()
	defer s.elementMutex.RUnlock()

	elements := make([]*Element, 0, len(s.elements))
	for _, e := range s.elements {
		elements = append(elements, e)
	}
	return elements
}

func (s *Scene) Broadcast(sender *Participant, v any) {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	msg, err := wire.MsgFromAny(v)
	if err != nil {
		logs.WithTag("message", v).Debug(err)
		return
	}

	for _, p := range s.participants {
		if p == sender {
			continue
		}
		p.Responder.SendMsg(msg)
	}
}

func (s *Scene) BroadcastTo(sender *Participant, v any, participantIDs ...uint32) {
	participants := s.GetParticipantsByIDs(participantIDs...)
	isParticipantHandled := make(map[uint32]struct{}, len(participantIDs))

	msg, err := wire.MsgFromAny(v)
	if err != nil {
		logs.WithTag("message", v).Debug(err)
		return
	}

	for _, p := range participants {
		if p == sender {
			continue
		}

		if _, ok := isParticipantHandled[p.ID]; ok {
			continue
		}
		isParticipantHandled[p.ID] = struct{}{}

		p.Responder.SendMsg(msg)
	}
}

func (s *Scene) SetModuleState(moduleName string, state any) {
	s.moduleMutex.Lock()
	defer s.moduleMutex.Unlock()

	s.moduleStates[moduleName] = state
}

func (s *Scene) ModuleState(moduleName string) (any, bool) {
	s.moduleMutex.RLock()
	defer s.moduleMutex.RUnlock()

	state, ok := s.moduleStates[moduleName]
	return state, ok
}

func (s *Scene) HandleFrame(h func()) (cancel func()) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	id := s.frameHandlerIDs.New()
	s.frameHandlers[id] = h

	return func() {
		s.frameMutex.Lock()
		defer s.frameMutex.Unlock()

		delete(s.frameHandlers, id)
		s.frameHandlerIDs.Reuse(id)
	}
}

func (s *Scene) StartDispatchFrames() {
	s.startFrameOnce.Do(func() {
		for {
			select {
			case <-s.closeFrameChan:
				return

			case <-s.frameTicker.C:
				s.frameMutex.RLock()
				for _, h := range s.frameHandlers {
					h()
				}
				s.frameMutex.RUnlock()
			}
		}
	})
}

type SceneStore struct {
	// The id that distinguishes this server in global scene ids. Defaults
	// to "dn".
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	scenes   map[string]*Scene
	ids      SequentialIDGenerator
}

func (s *SceneStore) init() {
	s.scenes = map[string]*Scene{}

	if s.ServerID == "" {
		s.ServerID = "dn"
	}
}

func (s *SceneStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SceneStore) Add(ctx context.Context, scene *Scene) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes[s.GlobalSceneID(scene.ID)] = scene

	instrumentIncreaseSceneGauge()
	instrumentCountScene()
	return nil
}

func (s *SceneStore) Remove(ctx context.Context, scene *Scene) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.scenes, s.GlobalSceneID(scene.ID))
	scene.Close()

	s.ids.Reuse(scene.ID)

	instrumentDecreaseSceneGauge()
}

func (s *SceneStore) GetByGlobalID(v string) (*Scene, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scene, ok := s.scenes[v]
	return scene, ok
}

func (s *SceneStore) GlobalSceneID(sceneID uint32) string {
	s.initOnce.Do(s.init)

	return fmt.Sprintf("%sx%x", s.ServerID, sceneID)
}
