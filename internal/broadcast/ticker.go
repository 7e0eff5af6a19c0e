package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
	"github.com/pscheid92/plantpulse/internal/domain"
	"github.com/pscheid92/plantpulse/internal/platform/correlation"
	"github.com/pscheid92/plantpulse/internal/protocol"
)

const DefaultTickInterval = 5 * time.Second

type snapshotSource interface {
	Advance()
	Snapshot() domain.Snapshot
}

type fanout interface {
	Broadcast(msg protocol.Message) Result
	ConnectionCount() int
}

// Ticker periodically publishes a fresh plant snapshot to every connection.
// A tick with nobody attached does no snapshot or serialization work.
type Ticker struct {
	source   snapshotSource
	out      fanout
	clock    clockwork.Clock
	interval time.Duration
	metrics  *metrics.HubMetrics
}

func NewTicker(source snapshotSource, out fanout, clock clockwork.Clock, interval time.Duration, m *metrics.HubMetrics) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		source:   source,
		out:      out,
		clock:    clock,
		interval: interval,
		metrics:  m,
	}
}

// Run blocks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.tick(ctx)
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	t.source.Advance()

	if t.out.ConnectionCount() == 0 {
		t.metrics.Ticks.WithLabelValues("skipped").Inc()
		return
	}

	tickCtx := correlation.WithID(ctx, correlation.NewID())
	result := t.out.Broadcast(protocol.MetricsUpdate(t.source.Snapshot()))
	t.metrics.Ticks.WithLabelValues("broadcast").Inc()

	slog.DebugContext(tickCtx, "Ticker: broadcast snapshot",
		"attempted", result.Attempted,
		"delivered", result.Delivered,
		"evicted", result.Evicted)
}
