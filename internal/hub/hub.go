// Package hub supervises one plant telemetry hub: it binds the listener,
// owns the connection registry and the ticker, and tears everything down on
// Stop. Callers construct it with Start and hold the single instance.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/plantpulse/internal/adapter/httpserver"
	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
	wsadapter "github.com/pscheid92/plantpulse/internal/adapter/websocket"
	"github.com/pscheid92/plantpulse/internal/broadcast"
	"github.com/pscheid92/plantpulse/internal/command"
	apperrors "github.com/pscheid92/plantpulse/internal/errors"
	"github.com/pscheid92/plantpulse/internal/plant"
	"github.com/pscheid92/plantpulse/internal/platform/limiter"
	"golang.org/x/sync/errgroup"
)

const (
	stopReason       = "hub stopping"
	closeConcurrency = 32
)

var errStopping = errors.New("hub is stopping")

type Config struct {
	// Addr is the TCP bind address, e.g. ":8080" or "127.0.0.1:0".
	Addr         string
	TickInterval time.Duration

	AppURL        string
	IsDevelopment bool

	MaxConnections      int
	MaxConnectionsPerIP int
	CommandRate         float64
	CommandBurst        int
	UpgradeRate         float64
	UpgradeBurst        int

	// SendQueueSize is the per-connection outbound queue. It is raised to
	// twice CommandBurst when smaller, since every accepted command is
	// broadcast to every connection.
	SendQueueSize int

	// TrustedProxies may set the client address via X-Forwarded-For.
	TrustedProxies []*net.IPNet
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = broadcast.DefaultTickInterval
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 1000
	}
	if c.MaxConnectionsPerIP <= 0 {
		c.MaxConnectionsPerIP = c.MaxConnections
	}
	if c.CommandRate <= 0 {
		c.CommandRate = 10
	}
	if c.CommandBurst <= 0 {
		c.CommandBurst = 20
	}
	if c.UpgradeRate <= 0 {
		c.UpgradeRate = 5
	}
	if c.UpgradeBurst <= 0 {
		c.UpgradeBurst = 10
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = broadcast.DefaultQueueSize
	}
	if c.SendQueueSize <= c.CommandBurst {
		c.SendQueueSize = 2 * c.CommandBurst
	}
	return c
}

type Option func(*Hub)

// WithClock replaces the wall clock driving the ticker, keep-alives and
// message timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(h *Hub) { h.clock = clock }
}

// WithMetricsRegistry registers the hub's metrics on reg and serves reg on
// /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(h *Hub) { h.promRegistry = reg }
}

type Hub struct {
	cfg          Config
	clock        clockwork.Clock
	promRegistry *prometheus.Registry
	metrics      *metrics.HubMetrics

	floor       *plant.Floor
	generator   *plant.Generator
	conns       *broadcast.Registry
	broadcaster *broadcast.Broadcaster
	router      *command.Router
	upgrader    *websocket.Upgrader
	limits      *limiter.Connections

	listener  net.Listener
	server    *httpserver.Server
	serveDone chan error

	ctx        context.Context
	cancel     context.CancelFunc
	tickerDone chan struct{}

	// mu orders readers.Add against Stop's readers.Wait.
	mu       sync.Mutex
	stopping bool
	readers  sync.WaitGroup
	stopOnce sync.Once
}

// Start binds cfg.Addr, seeds the plant floor and starts the ticker. It fails
// with a bind error if the address cannot be listened on.
func Start(cfg Config, opts ...Option) (*Hub, error) {
	h := &Hub{
		cfg:   cfg.withDefaults(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.promRegistry == nil {
		h.promRegistry = metrics.NewRegistry()
	}

	ln, err := net.Listen("tcp", h.cfg.Addr)
	if err != nil {
		return nil, apperrors.BindError(h.cfg.Addr, err)
	}
	h.listener = ln

	h.metrics = metrics.NewHubMetrics(h.promRegistry)
	h.floor = plant.NewFloor()
	h.generator = plant.NewGenerator(h.floor, h.clock)
	h.conns = broadcast.NewRegistry(h.metrics.ActiveConnections)
	h.broadcaster = broadcast.NewBroadcaster(h.conns, h.metrics)
	h.router = command.NewRouter(h.floor, h.generator, h.broadcaster, h.clock, h.metrics)
	h.upgrader = wsadapter.NewUpgrader(h.cfg.AppURL, h.cfg.IsDevelopment)
	h.limits = limiter.NewConnections(int64(h.cfg.MaxConnections), h.cfg.MaxConnectionsPerIP)
	metrics.RegisterConnectionSlots(h.promRegistry, h.limits.Current)

	h.server = httpserver.NewServer(h, httpserver.Options{
		UpgradeRate:    h.cfg.UpgradeRate,
		UpgradeBurst:   h.cfg.UpgradeBurst,
		MetricsHandler: metrics.Handler(h.promRegistry),
		HTTPMetrics:    metrics.NewHTTPMetrics(h.promRegistry),
		HealthChecks:   []httpserver.HealthCheck{{Name: "hub", Check: h.checkReady}},
		Clock:          h.clock,
		TrustedProxies: h.cfg.TrustedProxies,
	})

	h.ctx, h.cancel = context.WithCancel(context.Background())

	ticker := broadcast.NewTicker(h.generator, h.broadcaster, h.clock, h.cfg.TickInterval, h.metrics)
	h.tickerDone = make(chan struct{})
	go func() {
		defer close(h.tickerDone)
		ticker.Run(h.ctx)
	}()

	h.serveDone = make(chan error, 1)
	go func() {
		err := h.server.Serve(ln)
		if err != nil {
			slog.Error("Hub server stopped unexpectedly", "error", err)
		}
		h.serveDone <- err
	}()

	slog.Info("Hub started", "addr", ln.Addr().String(), "tick_interval", h.cfg.TickInterval)
	return h, nil
}

// Addr is the address actually bound, useful when Config.Addr used port 0.
func (h *Hub) Addr() string {
	return h.listener.Addr().String()
}

func (h *Hub) ActiveConnectionCount() int {
	return h.conns.Len()
}

// Stop cancels the ticker, stops the HTTP server, closes every connection
// with a close frame and waits for all read loops to exit. Only the first
// call does anything; later calls return nil.
func (h *Hub) Stop(ctx context.Context) error {
	var err error
	h.stopOnce.Do(func() {
		err = h.stop(ctx)
	})
	return err
}

func (h *Hub) stop(ctx context.Context) error {
	h.mu.Lock()
	h.stopping = true
	h.mu.Unlock()

	slog.Info("Hub stopping", "active_connections", h.conns.Len())

	h.cancel()
	<-h.tickerDone

	var errs []error
	if err := h.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := <-h.serveDone; err != nil {
		errs = append(errs, err)
	}

	var g errgroup.Group
	g.SetLimit(closeConcurrency)
	for _, c := range h.conns.Snapshot() {
		g.Go(func() error {
			h.conns.Remove(c)
			c.Close(stopReason)
			return nil
		})
	}
	_ = g.Wait()

	readersDone := make(chan struct{})
	go func() {
		h.readers.Wait()
		close(readersDone)
	}()
	select {
	case <-readersDone:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for connections to close: %w", ctx.Err()))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("hub stop: %w", err)
	}
	slog.Info("Hub stopped")
	return nil
}

func (h *Hub) checkReady(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopping {
		return errStopping
	}
	return nil
}
