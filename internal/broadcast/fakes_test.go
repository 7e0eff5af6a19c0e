package broadcast

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
)

type fakeConn struct {
	id uuid.UUID

	mu          sync.Mutex
	sent        [][]byte
	sendErr     error
	closeReason string
	closed      chan struct{}
	closeOnce   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.New(), closed: make(chan struct{})}
}

func (c *fakeConn) ID() uuid.UUID { return c.id }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeReason = reason
		c.mu.Unlock()
		close(c.closed)
	})
}

func (c *fakeConn) failWith(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func newTestMetrics(t *testing.T) *metrics.HubMetrics {
	t.Helper()
	return metrics.NewHubMetrics(prometheus.NewRegistry())
}
