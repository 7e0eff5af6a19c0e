package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/plantpulse/internal/domain"
	"github.com/pscheid92/plantpulse/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu        sync.Mutex
	advances  int
	snapshots int
}

func (s *countingSource) Advance() {
	s.mu.Lock()
	s.advances++
	s.mu.Unlock()
}

func (s *countingSource) Snapshot() domain.Snapshot {
	s.mu.Lock()
	s.snapshots++
	s.mu.Unlock()
	return domain.Snapshot{FactoryStatus: domain.FactoryOperational}
}

func (s *countingSource) counts() (advances, snapshots int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advances, s.snapshots
}

type recordingFanout struct {
	mu          sync.Mutex
	connections int
	messages    []protocol.Message
}

func (f *recordingFanout) Broadcast(msg protocol.Message) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return Result{Attempted: f.connections, Delivered: f.connections}
}

func (f *recordingFanout) ConnectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connections
}

func (f *recordingFanout) broadcasts() []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func startTicker(t *testing.T, source *countingSource, out *recordingFanout) (*clockwork.FakeClock, *Ticker, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	m := newTestMetrics(t)
	ticker := NewTicker(source, out, clock, 5*time.Second, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ticker.Run(ctx)
		close(done)
	}()
	t.Cleanup(cancel)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	return clock, ticker, cancel, done
}

func TestTicker_BroadcastsMetricsUpdate(t *testing.T) {
	source := &countingSource{}
	out := &recordingFanout{connections: 2}
	clock, _, _, _ := startTicker(t, source, out)

	clock.Advance(5 * time.Second)

	assert.Eventually(t, func() bool { return len(out.broadcasts()) == 1 }, time.Second, 5*time.Millisecond)
	msg := out.broadcasts()[0]
	assert.Equal(t, protocol.TypeMetricsUpdate, msg.Type)
	snap, ok := msg.Data.(domain.Snapshot)
	require.True(t, ok)
	assert.Equal(t, domain.FactoryOperational, snap.FactoryStatus)
}

func TestTicker_SkipsWorkWithoutConnections(t *testing.T) {
	source := &countingSource{}
	out := &recordingFanout{}
	clock, ticker, _, _ := startTicker(t, source, out)

	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool {
		advances, _ := source.counts()
		return advances == 1
	}, time.Second, 5*time.Millisecond)

	_, snapshots := source.counts()
	assert.Zero(t, snapshots, "no snapshot is generated when nobody listens")
	assert.Empty(t, out.broadcasts())
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(ticker.metrics.Ticks.WithLabelValues("skipped")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTicker_NoTickBeforeInterval(t *testing.T) {
	source := &countingSource{}
	out := &recordingFanout{connections: 1}
	clock, _, _, _ := startTicker(t, source, out)

	clock.Advance(4 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, out.broadcasts())

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return len(out.broadcasts()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestTicker_StopsOnCancel(t *testing.T) {
	source := &countingSource{}
	out := &recordingFanout{connections: 1}
	_, _, cancel, done := startTicker(t, source, out)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop after cancel")
	}
}

func TestNewTicker_DefaultInterval(t *testing.T) {
	ticker := NewTicker(&countingSource{}, &recordingFanout{}, clockwork.NewFakeClock(), 0, newTestMetrics(t))
	assert.Equal(t, DefaultTickInterval, ticker.interval)
}
