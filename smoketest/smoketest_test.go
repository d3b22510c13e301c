package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dragnetlabs/dragnet/modules/lasso"
	"github.com/dragnetlabs/dragnet/wire"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func mockServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			for {
				msg, _, err := wire.Receive(conn)
				if err != nil {
					return
				}

				switch msg.Type {
				case wire.MsgTypeSceneJoinRequest:
					var req wire.SceneJoinRequest
					err := msg.DataTo(&req)
					require.NoError(t, err)

					sendMock(t, conn, &wire.SceneJoinResponse{
						Type:          wire.MsgTypeSceneJoinResponse,
						Timestamp:     time.Now().UTC(),
						RequestID:     req.RequestID,
						SceneID:       "tedx1",
						SceneUUID:     "8e1ffe62-35f4-4bcf-bab9-5183ffac2e9c",
						ParticipantID: 1,
					})

				case wire.MsgTypeElementAddRequest:
					var req wire.ElementAddRequest
					err := msg.DataTo(&req)
					require.NoError(t, err)

					sendMock(t, conn, &wire.ElementAddResponse{
						Type:      wire.MsgTypeElementAddResponse,
						Timestamp: time.Now().UTC(),
						RequestID: req.RequestID,
						ElementID: 1,
					})

				case lasso.MsgTypeLassoSetRequest:
					var req lasso.SetRequest
					err := msg.DataTo(&req)
					require.NoError(t, err)

					sendMock(t, conn, &lasso.SetResponse{
						Type:      lasso.MsgTypeLassoSetResponse,
						Timestamp: time.Now().UTC(),
						RequestID: req.RequestID,
					})
					sendMock(t, conn, &lasso.Delta{
						Type:      lasso.MsgTypeLassoDelta,
						Timestamp: time.Now().UTC(),
						Entered:   []uint32{1},
						Selected:  []uint32{1},
					})

				case wire.MsgTypePingRequest:
					var req wire.Request
					err := msg.DataTo(&req)
					require.NoError(t, err)

					time.Sleep(time.Millisecond)
					sendMock(t, conn, &wire.Response{
						Type:      wire.MsgTypePingResponse,
						Timestamp: time.Now().UTC(),
						RequestID: req.RequestID,
					})
				}
			}
		},
	})
	t.Cleanup(server.Close)
	return server
}

func sendMock(t *testing.T, conn *websocket.Conn, v any) {
	msg, err := wire.MsgFromAny(v)
	require.NoError(t, err)

	_, err = wire.Send(conn, msg)
	require.NoError(t, err)
}

func TestSmokeTest(t *testing.T) {
	t.Run("smoke test success", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server := mockServer(t)

		ctx = context.WithValue(ctx, testCtxKeyValue, testContext{
			Context: ctx,
			Cancel:  cancel,
		})

		var gotResult bool
		smokeTest := HandleSmokeTest(ctx, Options{
			Endpoint: "http://localdragnet",
			SendResult: func(_ context.Context, res Results) error {
				require.Equal(t, "http://localdragnet", res.FromEndpoint)
				require.Equal(t, server.URL, res.ToEndpoint)
				require.Equal(t, "tedx1", res.SceneID)
				require.GreaterOrEqual(t, res.PingLatency, time.Millisecond)
				require.Empty(t, res.Error)
				gotResult = true
				return nil
			},
		})

		body, err := json.Marshal(Request{
			Endpoint: server.URL,
			Timeout:  time.Second,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localdragnet", bytes.NewBuffer(body))

		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		<-ctx.Done()

		require.True(t, gotResult)
	})

	t.Run("smoke test failed - offline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		ctx = context.WithValue(ctx, testCtxKeyValue, testContext{
			Context: ctx,
			Cancel:  cancel,
		})

		var gotResult bool
		smokeTest := HandleSmokeTest(ctx, Options{
			Endpoint: "http://localdragnet",
			SendResult: func(_ context.Context, res Results) error {
				require.Equal(t, "http://localdragnet", res.FromEndpoint)
				require.Equal(t, "http://otherdragnet", res.ToEndpoint)
				require.Zero(t, res.PingLatency)
				require.NotEmpty(t, res.Error)
				gotResult = true
				return nil
			},
		})

		body, err := json.Marshal(Request{
			Endpoint: "http://otherdragnet",
			Timeout:  time.Second,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localdragnet", bytes.NewBuffer(body))

		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		<-ctx.Done()

		require.True(t, gotResult)
	})

	t.Run("smoke test bad request", func(t *testing.T) {
		smokeTest := HandleSmokeTest(context.Background(), Options{
			Endpoint: "http://localdragnet",
			SendResult: func(context.Context, Results) error {
				t.Fatal("result sent for a malformed request")
				return nil
			},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://localdragnet", bytes.NewBufferString("{"))

		smokeTest.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
