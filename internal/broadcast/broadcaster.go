package broadcast

import (
	"errors"
	"log/slog"

	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
	"github.com/pscheid92/plantpulse/internal/domain"
	apperrors "github.com/pscheid92/plantpulse/internal/errors"
	"github.com/pscheid92/plantpulse/internal/protocol"
)

// Result summarizes one fan-out.
type Result struct {
	Attempted int
	Delivered int
	Evicted   int
}

// Broadcaster serializes a message once and hands it to every registered
// connection. A connection that cannot take the message is removed from the
// registry and closed; the rest still receive it.
type Broadcaster struct {
	registry *Registry
	metrics  *metrics.HubMetrics
}

func NewBroadcaster(registry *Registry, m *metrics.HubMetrics) *Broadcaster {
	return &Broadcaster{registry: registry, metrics: m}
}

// Broadcast delivers msg to every connection in a snapshot of the registry
// taken at call time. Connections added during the call may or may not
// receive it.
func (b *Broadcaster) Broadcast(msg protocol.Message) Result {
	data, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("Failed to encode broadcast", "type", msg.Type, "error", err)
		return Result{}
	}
	b.metrics.Broadcasts.WithLabelValues(string(msg.Type)).Inc()

	conns := b.registry.Snapshot()
	result := Result{Attempted: len(conns)}
	for _, c := range conns {
		if err := c.Send(data); err != nil {
			b.evict(c, err)
			result.Evicted++
			continue
		}
		result.Delivered++
	}

	b.metrics.Deliveries.WithLabelValues("delivered").Add(float64(result.Delivered))
	if result.Evicted > 0 {
		b.metrics.Deliveries.WithLabelValues("evicted").Add(float64(result.Evicted))
		slog.Warn("Broadcast evicted connections",
			"type", msg.Type,
			"attempted", result.Attempted,
			"evicted", result.Evicted)
	}
	return result
}

// Send delivers msg to one connection. On failure the connection is evicted
// exactly as a failed broadcast would.
func (b *Broadcaster) Send(c Conn, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return apperrors.InternalError("failed to encode message", err)
	}
	b.metrics.Unicasts.WithLabelValues(string(msg.Type)).Inc()

	if err := c.Send(data); err != nil {
		b.evict(c, err)
		b.metrics.Deliveries.WithLabelValues("evicted").Inc()
		return apperrors.DeliveryError(c.ID().String(), err)
	}
	b.metrics.Deliveries.WithLabelValues("delivered").Inc()
	return nil
}

// ConnectionCount is the current registry size.
func (b *Broadcaster) ConnectionCount() int {
	return b.registry.Len()
}

func (b *Broadcaster) evict(c Conn, cause error) {
	if !b.registry.Remove(c) {
		return
	}

	reason := "delivery failed"
	if errors.Is(cause, domain.ErrSlowClient) {
		reason = "client too slow"
	}
	slog.Warn("Evicting connection",
		"connection_id", c.ID(),
		"error", apperrors.DeliveryError(c.ID().String(), cause))

	// Close waits for the writer goroutine and may block on a write deadline.
	go c.Close(reason)
}
