package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/dragnetlabs/dragnet/featureflag"
	"github.com/dragnetlabs/dragnet/geom"
	dragnethttp "github.com/dragnetlabs/dragnet/http"
	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/modules"
	"github.com/dragnetlabs/dragnet/modules/emblem"
	"github.com/dragnetlabs/dragnet/modules/lasso"
	"github.com/dragnetlabs/dragnet/smoketest"
	dragnetws "github.com/dragnetlabs/dragnet/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The dragnet version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "dragnet_info",
		Help:        "Dragnet information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"DRAGNET_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"DRAGNET_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"DRAGNET_PUBLIC_ENDPOINT"      help:"The public endpoint where this dragnet server is reachable."`
	ServerID           string        `cli:""        env:"DRAGNET_SERVER_ID"            help:"The server identifier prefixed to scene ids."`
	LogLevel           string        `cli:""        env:"DRAGNET_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"DRAGNET_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"DRAGNET_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"DRAGNET_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected."`
	FrameDuration      time.Duration `cli:",hidden" env:"DRAGNET_FRAME_DURATION"       help:"The duration of a scene frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"DRAGNET_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Lasso              lassoConfig   `cli:",hidden" env:"-"                            help:"Lasso module configuration."`
	Events             eventsConfig  `cli:",hidden" env:"-"                            help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"DRAGNET_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

type lassoConfig struct {
	WorldMinX   float64 `cli:",hidden" env:"DRAGNET_LASSO_WORLD_MIN_X"   help:"The world bounds lower x coordinate."`
	WorldMinY   float64 `cli:",hidden" env:"DRAGNET_LASSO_WORLD_MIN_Y"   help:"The world bounds lower y coordinate."`
	WorldMaxX   float64 `cli:",hidden" env:"DRAGNET_LASSO_WORLD_MAX_X"   help:"The world bounds upper x coordinate."`
	WorldMaxY   float64 `cli:",hidden" env:"DRAGNET_LASSO_WORLD_MAX_Y"   help:"The world bounds upper y coordinate."`
	MinCellSize float64 `cli:",hidden" env:"DRAGNET_LASSO_MIN_CELL_SIZE" help:"The smallest spatial index cell size."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"DRAGNET_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"DRAGNET_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"DRAGNET_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"DRAGNET_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		ServerID:           "dn",
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 15,
		LogSummaryInterval: time.Minute,
		Lasso: lassoConfig{
			WorldMinX:   -512,
			WorldMinY:   -512,
			WorldMaxX:   512,
			WorldMaxY:   512,
			MinCellSize: 16,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a dragnet server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "dragnet",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	scenes := models.SceneStore{
		ServerID: conf.ServerID,
	}

	newModules := func() []modules.Module {
		return []modules.Module{
			&lasso.Module{
				World: geom.NewBox(
					conf.Lasso.WorldMinX,
					conf.Lasso.WorldMinY,
					conf.Lasso.WorldMaxX,
					conf.Lasso.WorldMaxY,
				),
				MinCellSize:  conf.Lasso.MinCellSize,
				FeatureFlags: featureflag.New(conf.FeatureFlags),
			},
			&emblem.Module{},
		}
	}

	var service http.ServeMux

	service.Handle("/health", dragnethttp.HandleWithCORS(dragnethttp.HandleHealthCheck))
	service.Handle("/ready", dragnethttp.HandleWithCORS(dragnethttp.HandleReadyCheck(func() bool {
		return true
	})))
	service.Handle("/version", dragnethttp.HandleWithCORS(dragnethttp.HandleVersion(version)))

	service.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint: conf.PublicEndpoint,
		SendResult: func(_ context.Context, res smoketest.Results) error {
			logs.WithTag("to_endpoint", res.ToEndpoint).
				WithTag("scene_id", res.SceneID).
				WithTag("ping_latency", res.PingLatency).
				WithTag("error", res.Error).
				Info("smoke test completed")
			return nil
		},
	}))

	service.Handle("/", websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var h dragnetws.Handler = &dragnetws.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				FrameDuration:           conf.FrameDuration,
				Scenes:                  &scenes,
				Modules:                 newModules(),
				FeatureFlags:            featureflag.New(conf.FeatureFlags),
			}
			h = dragnetws.HandlerWithLogs(h, conf.LogSummaryInterval)
			h = dragnetws.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			dragnetws.Handle(ctx, conn, h)
		},
	})

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", dragnethttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("server_id", conf.ServerID).
		Info("starting dragnet server")

	dragnethttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			dragnethttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.ServerID == "" {
		return errors.New("server id is empty")
	}

	if conf.Lasso.WorldMinX >= conf.Lasso.WorldMaxX ||
		conf.Lasso.WorldMinY >= conf.Lasso.WorldMaxY {
		return errors.New("invalid lasso world bounds")
	}

	if conf.Lasso.MinCellSize <= 0 {
		return errors.New("invalid lasso min cell size")
	}

	return nil
}
