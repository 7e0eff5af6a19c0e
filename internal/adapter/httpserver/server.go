// Package httpserver hosts the dashboard endpoint and the operational routes
// on one echo instance.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
)

// Acceptor takes over an upgrade request on /ws. remoteIP is the peer
// address, or the X-Forwarded-For client when the peer is a trusted proxy.
type Acceptor interface {
	Accept(w http.ResponseWriter, r *http.Request, remoteIP string) error
}

type Options struct {
	// UpgradeRate and UpgradeBurst limit /ws requests per client IP.
	UpgradeRate  float64
	UpgradeBurst int

	MetricsHandler http.Handler
	HTTPMetrics    *metrics.HTTPMetrics
	HealthChecks   []HealthCheck
	Clock          clockwork.Clock

	// TrustedProxies are the networks whose X-Forwarded-For header is
	// believed. With none, the TCP peer address is the client address.
	TrustedProxies []*net.IPNet
}

type Server struct {
	echo     *echo.Echo
	acceptor Acceptor

	upgradeRate    float64
	upgradeBurst   int
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck

	clock     clockwork.Clock
	startTime time.Time
}

func NewServer(acceptor Acceptor, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(opts.TrustedProxies)

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	srv := &Server{
		echo:           e,
		acceptor:       acceptor,
		upgradeRate:    opts.UpgradeRate,
		upgradeBurst:   opts.UpgradeBurst,
		metricsHandler: opts.MetricsHandler,
		httpMetrics:    opts.HTTPMetrics,
		healthChecks:   opts.HealthChecks,
		clock:          clock,
		startTime:      clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

// ipExtractor resolves the address the per-IP caps and the upgrade rate
// limit key on. Forwarded headers from untrusted peers are ignored.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("Starting server", "addr", ln.Addr().String())
	s.echo.Listener = ln
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight HTTP handlers.
// Hijacked WebSocket connections are not tracked here.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
