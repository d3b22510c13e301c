package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dragnetlabs/dragnet/featureflag"
	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/modules"
	"github.com/dragnetlabs/dragnet/wire"
	"golang.org/x/net/websocket"
)

const (
	maxCustomMessageSize = 10240
)

// RealtimeHandler is the dragnet handler that serves a realtime scene
// connection.
type RealtimeHandler struct {
	// The interval between sync clock messages.
	ClientSyncClockInterval time.Duration

	// The time a client can remain idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The duration of a frame.
	FrameDuration time.Duration

	// The store that contains the running scenes.
	Scenes *models.SceneStore

	// The modules that extend the handler capabilities.
	Modules []modules.Module

	// The feature flags toggled on this server.
	FeatureFlags featureflag.FeatureFlag

	conn               *websocket.Conn
	currentScene       *models.Scene
	currentParticipant *models.Participant
	stopFrameHandling  func()
	clientID           string
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.Request
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	respond.Send(&wire.Response{
		Type:      wire.MsgTypePingResponse,
		Timestamp: time.Now().UTC(),
		RequestID: req.RequestID,
	})
	return nil
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn
	h.clientID = conn.Request().Header.Get(HeaderClientID)
}

func (h *RealtimeHandler) HandleSceneJoin(ctx context.Context, handleFrame func(), respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.SceneJoinRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if h.currentScene != nil {
		if h.Scenes.GlobalSceneID(h.currentScene.ID) == req.SceneID {
			respond.Send(&wire.ErrorResponse{
				Type:      wire.MsgTypeErrorResponse,
				Timestamp: time.Now().UTC(),
				RequestID: req.RequestID,
				Code:      wire.ErrorCodeSceneAlreadyJoined,
			})
			return nil
		}
		h.leaveScene(ctx)
	}

	var scene *models.Scene
	if req.SceneID != "" {
		var ok bool
		if scene, ok = h.Scenes.GetByGlobalID(req.SceneID); !ok {
			respond.Send(&wire.ErrorResponse{
				Type:      wire.MsgTypeErrorResponse,
				Timestamp: time.Now().UTC(),
				RequestID: req.RequestID,
				Code:      wire.ErrorCodeNotFound,
			})
			return nil
		}
	} else {
		scene = models.NewScene(h.Scenes.NewID(), h.FrameDuration)
		if err := h.Scenes.Add(ctx, scene); err != nil {
			return errors.New("adding scene to store failed").Wrap(err)
		}
		go scene.StartDispatchFrames()
	}

	participant := &models.Participant{
		ID:        scene.NewParticipantID(),
		Responder: respond,
	}
	scene.AddParticipant(participant)

	h.currentScene = scene
	h.currentParticipant = participant
	h.stopFrameHandling = scene.HandleFrame(handleFrame)

	now := time.Now().UTC()
	respond.Send(&wire.SceneJoinResponse{
		Type:          wire.MsgTypeSceneJoinResponse,
		Timestamp:     now,
		RequestID:     req.RequestID,
		SceneID:       h.Scenes.GlobalSceneID(scene.ID),
		SceneUUID:     scene.SceneUUID,
		ParticipantID: participant.ID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableSceneState, func() {
		respond.Send(&wire.SceneState{
			Type:         wire.MsgTypeSceneState,
			Timestamp:    now,
			Participants: models.ParticipantsToWire(scene.GetParticipants()),
			Elements:     models.ElementsToWire(scene.Elements()),
		})
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantJoinBroadcast, func() {
		scene.Broadcast(participant, &wire.ParticipantJoinBroadcast{
			Type:            wire.MsgTypeParticipantJoinBroadcast,
			Timestamp:       now,
			OriginTimestamp: req.Timestamp,
			ParticipantID:   participant.ID,
		})
	})

	for _, m := range h.Modules {
		m.Init(scene, participant)
	}
	return nil
}

func (h *RealtimeHandler) HandleElementAdd(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.ElementAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := h.currentScene
	participant := h.currentParticipant
	if scene == nil || participant == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	element := &models.Element{
		ID:            scene.NewElementID(),
		ParticipantID: participant.ID,
		Persist:       req.Persist,
		Dynamic:       req.Dynamic,
	}
	element.SetBox(req.Box.Geom())

	scene.AddElement(element)
	participant.AddElement(element)

	now := time.Now().UTC()
	respond.Send(&wire.ElementAddResponse{
		Type:      wire.MsgTypeElementAddResponse,
		Timestamp: now,
		RequestID: req.RequestID,
		ElementID: element.ID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableElementAddBroadcast, func() {
		scene.Broadcast(participant, &wire.ElementAddBroadcast{
			Type:            wire.MsgTypeElementAddBroadcast,
			Timestamp:       now,
			OriginTimestamp: req.Timestamp,
			Element:         element.ToWire(),
		})
	})
	return nil
}

func (h *RealtimeHandler) HandleElementDelete(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.ElementDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := h.currentScene
	participant := h.currentParticipant
	if scene == nil || participant == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
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

	if element.ParticipantID != participant.ID {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			RequestID: req.RequestID,
			Code:      wire.ErrorCodeUnauthorized,
		})
		return nil
	}

	scene.RemoveElement(element)
	participant.RemoveElement(element)

	now := time.Now().UTC()
	respond.Send(&wire.ElementDeleteResponse{
		Type:      wire.MsgTypeElementDeleteResponse,
		Timestamp: now,
		RequestID: req.RequestID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableElementDeleteBroadcast, func() {
		scene.Broadcast(participant, &wire.ElementDeleteBroadcast{
			Type:            wire.MsgTypeElementDeleteBroadcast,
			Timestamp:       now,
			OriginTimestamp: req.Timestamp,
			ElementID:       element.ID,
		})
	})
	return nil
}

func (h *RealtimeHandler) HandleElementUpdateBox(ctx context.Context, msg wire.Msg) error {
	var req wire.ElementUpdateBox
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := h.currentScene
	participant := h.currentParticipant
	if scene == nil || participant == nil {
		// Fire and forget updates that cannot apply are silently dropped.
		return nil
	}

	element, ok := scene.ElementByID(req.ElementID)
	if !ok || element.ParticipantID != participant.ID {
		return nil
	}

	element.SetBox(req.Box.Geom())
	scene.TouchElement(element)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableElementUpdateBoxBroadcast, func() {
		scene.Broadcast(participant, &wire.ElementUpdateBoxBroadcast{
			Type:            wire.MsgTypeElementUpdateBoxBroadcast,
			Timestamp:       time.Now().UTC(),
			OriginTimestamp: req.Timestamp,
			ElementID:       element.ID,
			Box:             req.Box,
		})
	})
	return nil
}

func (h *RealtimeHandler) HandleCustomMessage(ctx context.Context, respond wire.ResponseSender, msg wire.Msg) error {
	var req wire.CustomMessage
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	scene := h.currentScene
	participant := h.currentParticipant
	if scene == nil || participant == nil {
		return errors.New("scene not joined").
			WithType(wire.ErrTypeSceneNotJoined).
			WithTag("msg_type", msg.Type)
	}

	if len(req.Body) > maxCustomMessageSize {
		respond.Send(&wire.ErrorResponse{
			Type:      wire.MsgTypeErrorResponse,
			Timestamp: time.Now().UTC(),
			Code:      wire.ErrorCodeTooLarge,
		})
		return nil
	}

	broadcast := &wire.CustomMessageBroadcast{
		Type:            wire.MsgTypeCustomMessageBroadcast,
		Timestamp:       time.Now().UTC(),
		OriginTimestamp: req.Timestamp,
		ParticipantID:   participant.ID,
		Body:            req.Body,
	}

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableCustomMessageBroadcast, func() {
		if len(req.ParticipantIDs) != 0 {
			scene.BroadcastTo(participant, broadcast, req.ParticipantIDs...)
			return
		}
		scene.Broadcast(participant, broadcast)
	})
	return nil
}

func (h *RealtimeHandler) HandleWithModule(ctx context.Context, module modules.Module, respond wire.ResponseSender, msg wire.Msg) error {
	err := module.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, wire.ErrTypeMsgSkip) {
		return nil
	}
	return err
}

func (h *RealtimeHandler) HandleDisconnect(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		logs.WithTag("client_id", h.clientID).
			Debug(errors.New("client disconnected").Wrap(err))
	}

	h.leaveScene(context.Background())
}

func (h *RealtimeHandler) SendSyncClock(ctx context.Context, respond wire.ResponseSender) error {
	respond.Send(&wire.SyncClock{
		Type:      wire.MsgTypeSyncClock,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (h *RealtimeHandler) Receiver() wire.Receiver {
	return func() (wire.Msg, int, error) {
		return wire.Receive(h.conn)
	}
}

func (h *RealtimeHandler) Sender() wire.Sender {
	return func(msg wire.Msg) (int, error) {
		return wire.Send(h.conn, msg)
	}
}

func (h *RealtimeHandler) Close() {
	h.leaveScene(context.Background())
}

func (h *RealtimeHandler) SyncClockInterval() time.Duration {
	return h.ClientSyncClockInterval
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) GetScenes() *models.SceneStore {
	return h.Scenes
}

func (h *RealtimeHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *RealtimeHandler) CurrentScene() *models.Scene {
	return h.currentScene
}

func (h *RealtimeHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *RealtimeHandler) GetClientID() string {
	return h.clientID
}

func (h *RealtimeHandler) leaveScene(ctx context.Context) {
	scene := h.currentScene
	participant := h.currentParticipant
	if scene == nil || participant == nil {
		return
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	now := time.Now().UTC()
	for id := range participant.ElementIDs() {
		element, ok := scene.ElementByID(id)
		if !ok || element.Persist {
			continue
		}

		scene.RemoveElement(element)
		participant.RemoveElement(element)

		h.FeatureFlags.IfNotSet(featureflag.FlagDisableElementDeleteBroadcast, func() {
			scene.Broadcast(participant, &wire.ElementDeleteBroadcast{
				Type:      wire.MsgTypeElementDeleteBroadcast,
				Timestamp: now,
				ElementID: element.ID,
			})
		})
	}

	if h.stopFrameHandling != nil {
		h.stopFrameHandling()
		h.stopFrameHandling = nil
	}

	scene.RemoveParticipant(participant)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantLeaveBroadcast, func() {
		scene.Broadcast(participant, &wire.ParticipantLeaveBroadcast{
			Type:          wire.MsgTypeParticipantLeaveBroadcast,
			Timestamp:     now,
			ParticipantID: participant.ID,
		})
	})

	if scene.ParticipantCount() == 0 {
		h.Scenes.Remove(ctx, scene)
	}

	h.currentScene = nil
	h.currentParticipant = nil
}
