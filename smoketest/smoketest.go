// Package smoketest probes a dragnet server over its public websocket
// endpoint: it joins a scene, exchanges a ping and reports the measured
// latency.
package smoketest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/dragnetlabs/dragnet/modules/lasso"
	"github.com/dragnetlabs/dragnet/scenario"
	"github.com/dragnetlabs/dragnet/wire"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	defaultTimeout = time.Second * 10

	clientIDHeader = "X-Dragnet-Client-ID"
)

// Request asks a server to smoke test another endpoint.
type Request struct {
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
}

// Results reports the outcome of a smoke test run.
type Results struct {
	FromEndpoint string        `json:"from_endpoint"`
	ToEndpoint   string        `json:"to_endpoint"`
	SceneID      string        `json:"scene_id,omitempty"`
	PingLatency  time.Duration `json:"ping_latency"`
	Error        string        `json:"error,omitempty"`
}

type Options struct {
	Endpoint   string
	SendResult func(context.Context, Results) error
}

type testCtxKey string

var testCtxKeyValue testCtxKey = "test-context"

type testContext struct {
	context.Context
	Cancel func()
}

// HandleSmokeTest runs a smoke test against the requested endpoint in
// the background and pushes the results through opts.SendResult.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			defer func() {
				// cancel a test context on exit to signal completion
				if tctx := ctx.Value(testCtxKeyValue); tctx != nil {
					testCtx := tctx.(testContext)
					if testCtx.Cancel != nil {
						testCtx.Cancel()
					}
				}
			}()

			res, err := RunSmokeTest(ctx, RunSmokeTestOptions{
				FromEndpoint: opts.Endpoint,
				ToEndpoint:   req.Endpoint,
				Timeout:      req.Timeout,
			})
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

type RunSmokeTestOptions struct {
	FromEndpoint string
	ToEndpoint   string
	Timeout      time.Duration
}

// RunSmokeTest connects to the target endpoint and walks the selection
// path end to end: join a fresh scene, add an element, set a lasso
// rectangle around it, wait for the delta that selects it, then measure
// a ping round trip.
func RunSmokeTest(ctx context.Context, opts RunSmokeTestOptions) (Results, error) {
	res := Results{
		FromEndpoint: opts.FromEndpoint,
		ToEndpoint:   opts.ToEndpoint,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dial(opts.ToEndpoint)
	if err != nil {
		err = errors.New("dialing smoke test endpoint failed").
			WithTag("endpoint", opts.ToEndpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}
	defer conn.Close()

	var elementID uint32
	var pingStart time.Time

	err = scenario.NewScenario(conn).
		Send(func() any {
			return &wire.SceneJoinRequest{
				Type:      wire.MsgTypeSceneJoinRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 1,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypeSceneJoinResponse),
			scenario.FilterByRequestID(1),
			func(msg wire.Msg) error {
				var join wire.SceneJoinResponse
				if err := msg.DataTo(&join); err != nil {
					return err
				}
				res.SceneID = join.SceneID
				return nil
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
				var add wire.ElementAddResponse
				if err := msg.DataTo(&add); err != nil {
					return err
				}
				elementID = add.ElementID
				return nil
			},
		).
		Send(func() any {
			return &lasso.SetRequest{
				Type:      lasso.MsgTypeLassoSetRequest,
				Timestamp: time.Now().UTC(),
				RequestID: 3,
				Rect:      wire.Box{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50},
			}
		}).
		Receive(
			scenario.FilterByType(lasso.MsgTypeLassoSetResponse),
			scenario.FilterByRequestID(3),
		).
		Receive(
			scenario.FilterByType(lasso.MsgTypeLassoDelta),
			func(msg wire.Msg) error {
				var delta lasso.Delta
				if err := msg.DataTo(&delta); err != nil {
					return err
				}
				for _, id := range delta.Selected {
					if id == elementID {
						return nil
					}
				}
				return errors.New("added element missing from selection delta").
					WithTag("element_id", elementID)
			},
		).
		Send(func() any {
			pingStart = time.Now()

			return &wire.Request{
				Type:      wire.MsgTypePingRequest,
				Timestamp: pingStart.UTC(),
				RequestID: 4,
			}
		}).
		Receive(
			scenario.FilterByType(wire.MsgTypePingResponse),
			scenario.FilterByRequestID(4),
			func(wire.Msg) error {
				res.PingLatency = time.Since(pingStart)
				return nil
			},
		).
		Run(ctx)
	if err != nil {
		err = errors.New("smoke test scenario failed").
			WithTag("endpoint", opts.ToEndpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}

	return res, nil
}

func dial(endpoint string) (*websocket.Conn, error) {
	url := endpoint
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)

	config, err := websocket.NewConfig(url, "http://localhost")
	if err != nil {
		return nil, err
	}
	config.Header.Set(clientIDHeader, uuid.NewString())

	return websocket.DialConfig(config)
}
