package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/dragnetlabs/dragnet/modules"
	"github.com/dragnetlabs/dragnet/modules/emblem"
	"github.com/dragnetlabs/dragnet/scenario"
	"github.com/dragnetlabs/dragnet/wire"
	"github.com/stretchr/testify/require"
)

func newEmblemModule() modules.Module {
	return &emblem.Module{}
}

func TestEmblemModuleSetAndRemove(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(newEmblemModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var sceneID string
	var elementID uint32

	err := scenario.NewScenario(clientA).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeSceneJoinResponse),
			func(msg wire.Msg) error {
				var res wire.SceneJoinResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				sceneID = res.SceneID
				return err
			},
		).
		Send(func() any {
			return &wire.ElementAddRequest{
				Type:      wire.MsgTypeElementAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Box:       wire.Box{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20},
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeElementAddResponse),
			scenario.FilterByRequestID(2),
			func(msg wire.Msg) error {
				var res wire.ElementAddResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				elementID = res.ElementID
				return err
			},
		).
		Send(func() any {
			return &emblem.SetRequest{
				Type:      emblem.MsgTypeEmblemSetRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
				ElementID: elementID,
				Name:      "outline",
				Data:      []byte("red"),
			}
		}).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemSetResponse),
			scenario.FilterByRequestID(3),
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientB).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 4,
				SceneID:   sceneID,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeSceneJoinResponse),
			scenario.FilterByRequestID(4),
		).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemState),
			func(msg wire.Msg) error {
				var res emblem.State
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Len(t, res.Emblems, 1)
				require.Equal(t, elementID, res.Emblems[0].ElementID)
				require.Equal(t, "outline", res.Emblems[0].Name)
				require.Equal(t, []byte("red"), res.Emblems[0].Data)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientA).
		Send(func() any {
			return &emblem.RemoveRequest{
				Type:      emblem.MsgTypeEmblemRemoveRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 5,
				ElementID: elementID,
				Name:      "outline",
			}
		}).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemRemoveResponse),
			scenario.FilterByRequestID(5),
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientB).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemRemoveBroadcast),
			func(msg wire.Msg) error {
				var bc emblem.RemoveBroadcast
				err := msg.DataTo(&bc)
				require.NoError(t, err)

				require.Equal(t, elementID, bc.ElementID)
				require.Equal(t, "outline", bc.Name)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestEmblemModuleSetBroadcast(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(newEmblemModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var sceneID string
	var elementID uint32

	err := scenario.NewScenario(clientA).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeSceneJoinResponse),
			func(msg wire.Msg) error {
				var res wire.SceneJoinResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				sceneID = res.SceneID
				return err
			},
		).
		Send(func() any {
			return &wire.ElementAddRequest{
				Type:      wire.MsgTypeElementAddRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				Box:       wire.Box{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20},
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeElementAddResponse),
			scenario.FilterByRequestID(2),
			func(msg wire.Msg) error {
				var res wire.ElementAddResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				elementID = res.ElementID
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientB).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
				SceneID:   sceneID,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeSceneJoinResponse),
			scenario.FilterByRequestID(3),
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientA).
		Send(func() any {
			return &emblem.SetRequest{
				Type:      emblem.MsgTypeEmblemSetRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 4,
				ElementID: elementID,
				Name:      "halo",
			}
		}).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemSetResponse),
			scenario.FilterByRequestID(4),
		).
		Run(ctx)
	require.NoError(t, err)

	err = scenario.NewScenario(clientB).
		Receive(
			scenario.FilterByType(emblem.MsgTypeEmblemSetBroadcast),
			func(msg wire.Msg) error {
				var bc emblem.SetBroadcast
				err := msg.DataTo(&bc)
				require.NoError(t, err)

				require.Equal(t, elementID, bc.Emblem.ElementID)
				require.Equal(t, "halo", bc.Emblem.Name)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestEmblemModuleSetErrors(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newEmblemModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := scenario.NewScenario(clientA).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(scenario.FilterByType(wire.MsgTypeSceneJoinResponse)).
		Send(func() any {
			return &emblem.SetRequest{
				Type:      emblem.MsgTypeEmblemSetRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				ElementID: 42,
				Name:      "",
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeErrorResponse),
			scenario.FilterByRequestID(2),
			func(msg wire.Msg) error {
				var res wire.ErrorResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, wire.ErrorCodeBadRequest, res.Code)
				return err
			},
		).
		Send(func() any {
			return &emblem.SetRequest{
				Type:      emblem.MsgTypeEmblemSetRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
				ElementID: 42,
				Name:      "outline",
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeErrorResponse),
			scenario.FilterByRequestID(3),
			func(msg wire.Msg) error {
				var res wire.ErrorResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, wire.ErrorCodeNotFound, res.Code)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}

func TestEmblemModuleRemoveNonexistent(t *testing.T) {
	clientA, _, close := NewTestingEnv(t, newTestHandler(newEmblemModule))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := scenario.NewScenario(clientA).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(scenario.FilterByType(wire.MsgTypeSceneJoinResponse)).
		Send(func() any {
			return &emblem.RemoveRequest{
				Type:      emblem.MsgTypeEmblemRemoveRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 2,
				ElementID: 42,
				Name:      "outline",
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeErrorResponse),
			scenario.FilterByRequestID(2),
			func(msg wire.Msg) error {
				var res wire.ErrorResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, wire.ErrorCodeNotFound, res.Code)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}
