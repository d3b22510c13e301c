// Package lasso implements rectangle selection over scene elements: a
// per-scene quadtree index kept in sync with the element change journal,
// and per-participant selection trackers refreshed once per frame.
package lasso

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dragnetlabs/dragnet/featureflag"
	"github.com/dragnetlabs/dragnet/geom"
	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/wire"
)

const (
	defaultWorldSize   = 1024
	defaultMinCellSize = 16
)

type Module struct {
	// The region covered by the spatial index. Defaults to a square of
	// defaultWorldSize centered on the origin.
	World geom.Box

	// The minimum index cell side length. Defaults to defaultMinCellSize.
	MinCellSize float64

	FeatureFlags featureflag.FeatureFlag

	currentScene       *models.Scene
	currentParticipant *models.Participant
	state              *State
	stopFrameHandling  func()
}

func (m *Module) Name() string {
	return "lasso"
}

func (m *Module) Init(s *models.Scene, p *models.Participant) {
	m.currentScene = s
	m.currentParticipant = p

	if m.World.Empty() {
		half := float64(defaultWorldSize) / 2
		m.World = geom.NewBox(-half, -half, half, half)
	}
	if m.MinCellSize <= 0 {
		m.MinCellSize = defaultMinCellSize
	}

	state, ok := s.ModuleState(m.Name())
	if !ok {
		st, err := newState(s, m.World, m.MinCellSize)
		if err != nil {
			logs.WithTag("module", m.Name()).Error(err)
			return
		}
		state = st
		s.SetModuleState(m.Name(), state)
	}
	m.state = state.(*State)

	m.stopFrameHandling = s.HandleFrame(m.handleFrame)
}

func (m *Module) HandleMsg(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	switch msg.Type {
	case MsgTypeLassoSetRequest:
		return m.handleSet(ctx, respond, msg)

	case MsgTypeLassoClearRequest:
		return m.handleClear(ctx, respond, msg)

	case MsgTypeLassoRegionRequest:
		return m.handleRegion(ctx, respond, msg)

	default:
		return wire.ErrModuleMsgSkip
	}
}

func (m *Module) HandleDisconnect() {
	if m.stopFrameHandling != nil {
		m.stopFrameHandling()
		m.stopFrameHandling = nil
	}

	if m.state != nil && m.currentParticipant != nil {
		m.state.DropParticipant(m.currentParticipant.ID)
	}
}

// handleFrame runs on the scene frame loop: it settles the index against
// the journal, refreshes this participant's selection and pushes a delta
// when it changed.
func (m *Module) handleFrame() {
	m.state.SyncIndex()

	entered, exited, current, active := m.state.Refresh(m.currentParticipant.ID)
	if !active || len(entered)+len(exited) == 0 {
		return
	}

	now := time.Now().UTC()

	m.currentParticipant.Responder.Send(&Delta{
		Type:      MsgTypeLassoDelta,
		Timestamp: now,
		Entered:   idsToSlice(entered),
		Exited:    idsToSlice(exited),
		Selected:  idsToSlice(current),
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableLassoDeltaBroadcast, func() {
		m.currentScene.Broadcast(m.currentParticipant, &DeltaBroadcast{
			Type:          MsgTypeLassoDeltaBroadcast,
			Timestamp:     now,
			ParticipantID: m.currentParticipant.ID,
			Entered:       idsToSlice(entered),
			Exited:        idsToSlice(exited),
			Selected:      idsToSlice(current),
		})
	})
}

func (m *Module) handleSet(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req SetRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if m.currentScene == nil || m.currentParticipant == nil || m.state == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	rect := req.Rect.Geom()
	if !rect.Valid() {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeBadRequest,
		})
		return nil
	}

	m.state.SetRect(m.currentParticipant.ID, rect)

	respond.Send(&SetResponse{
		Type:      MsgTypeLassoSetResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})
	return nil
}

func (m *Module) handleClear(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req ClearRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if m.currentScene == nil || m.currentParticipant == nil || m.state == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	m.state.ClearRect(m.currentParticipant.ID)

	respond.Send(&ClearResponse{
		Type:      MsgTypeLassoClearResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})
	return nil
}

func (m *Module) handleRegion(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req RegionRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if m.currentScene == nil || m.currentParticipant == nil || m.state == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	rect := req.Rect.Geom()
	if !rect.Valid() {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeBadRequest,
		})
		return nil
	}

	// Settle pending element changes so the query sees current boxes.
	m.state.SyncIndex()

	respond.Send(&RegionResponse{
		Type:       MsgTypeLassoRegionResponse,
		Timestamp:  time.Now().UTC(),
		RequestID:  req.RequestID,
		ElementIDs: m.state.Region(rect),
	})
	return nil
}

func idsToSlice(ids map[uint32]struct{}) []uint32 {
	if len(ids) == 0 {
		return nil
	}

	out := make([]uint32, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}
