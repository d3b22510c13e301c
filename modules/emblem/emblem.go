// Package emblem attaches named display attributes to elements, such as
// the outline styles clients draw around selected elements.
package emblem

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/dragnetlabs/dragnet/featureflag"
	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/wire"
)

type Module struct {
	FeatureFlags featureflag.FeatureFlag

	currentScene       *models.Scene
	currentParticipant *models.Participant
	state              *store
}

func (m *Module) Name() string {
	return "emblem"
}

func (m *Module) Init(s *models.Scene, p *models.Participant) {
	m.currentScene = s
	m.currentParticipant = p

	state, ok := s.ModuleState(m.Name())
	if !ok {
		state = &store{}
		s.SetModuleState(m.Name(), state)
	}
	m.state = state.(*store)
}

func (m *Module) HandleMsg(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	switch msg.Type {
	case wire.MsgTypeSceneJoinRequest:
		return m.handleSceneJoin(ctx, respond, msg)

	case wire.MsgTypeElementDeleteRequest:
		return m.handleElementDelete(ctx, respond, msg)

	case MsgTypeEmblemSetRequest:
		return m.handleSet(ctx, respond, msg)

	case MsgTypeEmblemRemoveRequest:
		return m.handleRemove(ctx, respond, msg)

	default:
		return wire.ErrModuleMsgSkip
	}
}

func (m *Module) HandleDisconnect() {
	participant := m.currentParticipant
	if participant == nil || m.state == nil {
		return
	}

	for elementID := range participant.ElementIDs() {
		if element, ok := m.currentScene.ElementByID(elementID); !ok || !element.Persist {
			m.state.RemoveByElement(elementID)
		}
	}
}

// handleSceneJoin dumps existing emblems to the joining participant.
func (m *Module) handleSceneJoin(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	respond.Send(&State{
		Type:      MsgTypeEmblemState,
		Timestamp: time.Now().UTC(),
		Emblems:   m.state.All(),
	})
	return nil
}

// handleElementDelete cleans up emblems once the element is gone from
// the scene.
func (m *Module) handleElementDelete(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.ElementDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if _, ok := m.currentScene.ElementByID(req.ElementID); !ok {
		m.state.RemoveByElement(req.ElementID)
	}

	return nil
}

func (m *Module) handleSet(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req SetRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := m.currentScene
	participant := m.currentParticipant
	if scene == nil || participant == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	if req.Name == "" {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeBadRequest,
		})
		return nil
	}

	element, ok := scene.ElementByID(req.ElementID)
	if !ok {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	emblem := &Emblem{
		ElementID:     element.ID,
		ParticipantID: participant.ID,
		Name:          req.Name,
		Data:          req.Data,
	}
	m.state.Set(emblem)

	now := time.Now().UTC()
	respond.Send(&SetResponse{
		Type:      MsgTypeEmblemSetResponse,
		Timestamp: now,
		RequestID: req.RequestID,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableEmblemSetBroadcast, func() {
		scene.Broadcast(participant, &SetBroadcast{
			Type:            MsgTypeEmblemSetBroadcast,
			Timestamp:       now,
			OriginTimestamp: req.Timestamp,
			Emblem:          emblem,
		})
	})
	return nil
}

func (m *Module) handleRemove(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req RemoveRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := m.currentScene
	participant := m.currentParticipant
	if scene == nil || participant == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	if !m.state.Remove(req.ElementID, req.Name) {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeNotFound,
		})
		return nil
	}

	now := time.Now().UTC()
	respond.Send(&RemoveResponse{
		Type:      MsgTypeEmblemRemoveResponse,
		Timestamp: now,
		RequestID: req.RequestID,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableEmblemRemoveBroadcast, func() {
		scene.Broadcast(participant, &RemoveBroadcast{
			Type:            MsgTypeEmblemRemoveBroadcast,
			Timestamp:       now,
			OriginTimestamp: req.Timestamp,
			ElementID:       req.ElementID,
			Name:            req.Name,
		})
	})
	return nil
}
