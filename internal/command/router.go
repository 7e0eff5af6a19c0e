// Package command validates inbound control messages and turns them into
// floor transitions, broadcasts and replies.
package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/plantpulse/internal/adapter/metrics"
	"github.com/pscheid92/plantpulse/internal/broadcast"
	"github.com/pscheid92/plantpulse/internal/domain"
	apperrors "github.com/pscheid92/plantpulse/internal/errors"
	"github.com/pscheid92/plantpulse/internal/platform/correlation"
	"github.com/pscheid92/plantpulse/internal/protocol"
	"golang.org/x/time/rate"
)

const defaultEmergencyReason = "unspecified"

// Floor is the status table commands act on.
type Floor interface {
	ApplyReactorAction(id string, action domain.ReactorAction) (domain.ReactorStatus, error)
	ApplyStationAction(id string, action domain.StationAction) (domain.StationStatus, error)
	SystemIDs() []string
	Halt(ids []string) []string
}

type snapshotSource interface {
	Snapshot() domain.Snapshot
}

type publisher interface {
	Broadcast(msg protocol.Message) broadcast.Result
	Send(c broadcast.Conn, msg protocol.Message) error
}

// Router handles one inbound frame at a time. It is safe for concurrent use by
// every connection's read loop.
type Router struct {
	floor     Floor
	snapshots snapshotSource
	out       publisher
	clock     clockwork.Clock
	metrics   *metrics.HubMetrics
}

func NewRouter(floor Floor, snapshots snapshotSource, out publisher, clock clockwork.Clock, m *metrics.HubMetrics) *Router {
	return &Router{
		floor:     floor,
		snapshots: snapshots,
		out:       out,
		clock:     clock,
		metrics:   m,
	}
}

// Handle decodes raw and acts on it. Malformed frames are logged and dropped
// without a reply. limiter, if not nil, throttles everything except emergency
// stops.
func (r *Router) Handle(ctx context.Context, from broadcast.Conn, raw []byte, limiter *rate.Limiter) {
	ctx = correlation.WithConnection(correlation.WithID(ctx, correlation.NewID()), from.ID().String())

	cmd, err := protocol.Decode(raw)
	if err != nil {
		r.metrics.Commands.WithLabelValues("unknown", "malformed").Inc()
		slog.WarnContext(ctx, "Dropping malformed message", "error", err)
		return
	}

	kind := string(cmd.Kind())
	if _, urgent := cmd.(protocol.EmergencyStop); !urgent && limiter != nil && !limiter.Allow() {
		r.metrics.Commands.WithLabelValues(kind, "throttled").Inc()
		slog.DebugContext(ctx, "Dropping throttled command", "type", kind)
		return
	}

	var result string
	switch c := cmd.(type) {
	case protocol.ReactorControl:
		result = r.handleReactor(ctx, from, c)
	case protocol.StationControl:
		result = r.handleStation(ctx, from, c)
	case protocol.RequestMetrics:
		result = r.handleRequestMetrics(ctx, from)
	case protocol.EmergencyStop:
		result = r.handleEmergencyStop(ctx, c)
	default:
		result = "malformed"
		slog.WarnContext(ctx, "Dropping unhandled command", "type", kind)
	}
	r.metrics.Commands.WithLabelValues(kind, result).Inc()
}

func (r *Router) handleReactor(ctx context.Context, from broadcast.Conn, c protocol.ReactorControl) string {
	if len(c.Parameters) > 0 {
		slog.DebugContext(ctx, "Reactor command parameters", "reactor_id", c.ReactorID, "parameters", string(c.Parameters))
	}

	status, err := r.floor.ApplyReactorAction(c.ReactorID, c.Action)
	update := protocol.ReactorStatusUpdate{
		ReactorID: c.ReactorID,
		Action:    c.Action,
		Success:   err == nil,
		Status:    status,
		Timestamp: r.now(),
	}

	switch {
	case errors.Is(err, domain.ErrUnknownReactor):
		update.Error = domain.ErrUnknownReactor.Error()
		r.reject(ctx, from, protocol.ReactorStatus(update), apperrors.UnknownEntityError("reactor", c.ReactorID, err))
		return "unknown_entity"
	case errors.Is(err, domain.ErrInvalidTransition):
		update.Error = domain.ErrInvalidTransition.Error()
		slog.InfoContext(ctx, "Reactor transition refused", "reactor_id", c.ReactorID, "action", c.Action, "status", status)
		r.out.Broadcast(protocol.ReactorStatus(update))
		return "refused"
	case err != nil:
		slog.ErrorContext(ctx, "Reactor command failed", "reactor_id", c.ReactorID, "error", err)
		return "error"
	}

	slog.InfoContext(ctx, "Reactor status changed", "reactor_id", c.ReactorID, "action", c.Action, "status", status)
	r.out.Broadcast(protocol.ReactorStatus(update))
	return "ok"
}

func (r *Router) handleStation(ctx context.Context, from broadcast.Conn, c protocol.StationControl) string {
	if len(c.Parameters) > 0 {
		slog.DebugContext(ctx, "Station command parameters", "station_id", c.StationID, "parameters", string(c.Parameters))
	}

	status, err := r.floor.ApplyStationAction(c.StationID, c.Action)
	update := protocol.StationStatusUpdate{
		StationID: c.StationID,
		Action:    c.Action,
		Success:   err == nil,
		Status:    status,
		Timestamp: r.now(),
	}

	switch {
	case errors.Is(err, domain.ErrUnknownStation):
		update.Error = domain.ErrUnknownStation.Error()
		r.reject(ctx, from, protocol.StationStatus(update), apperrors.UnknownEntityError("station", c.StationID, err))
		return "unknown_entity"
	case errors.Is(err, domain.ErrInvalidTransition):
		update.Error = domain.ErrInvalidTransition.Error()
		slog.InfoContext(ctx, "Station transition refused", "station_id", c.StationID, "action", c.Action, "status", status)
		r.out.Broadcast(protocol.StationStatus(update))
		return "refused"
	case err != nil:
		slog.ErrorContext(ctx, "Station command failed", "station_id", c.StationID, "error", err)
		return "error"
	}

	slog.InfoContext(ctx, "Station status changed", "station_id", c.StationID, "action", c.Action, "status", status)
	r.out.Broadcast(protocol.StationStatus(update))
	return "ok"
}

func (r *Router) handleRequestMetrics(ctx context.Context, from broadcast.Conn) string {
	if err := r.out.Send(from, protocol.MetricsUpdate(r.snapshots.Snapshot())); err != nil {
		slog.WarnContext(ctx, "Metrics reply not delivered", "error", err)
		return "undelivered"
	}
	return "ok"
}

// handleEmergencyStop halts the affected systems and alerts every connection.
// An empty system list means the whole plant.
func (r *Router) handleEmergencyStop(ctx context.Context, c protocol.EmergencyStop) string {
	reason := c.Reason
	if reason == "" {
		reason = defaultEmergencyReason
	}
	affected := c.Systems
	if len(affected) == 0 {
		affected = r.floor.SystemIDs()
	}
	halted := r.floor.Halt(affected)

	slog.ErrorContext(ctx, "Emergency stop",
		"severity", "critical",
		"reason", reason,
		"affected_systems", affected,
		"halted", halted)

	result := r.out.Broadcast(protocol.EmergencyAlert(domain.Alert{
		Message:         "Emergency stop: " + reason,
		Level:           domain.AlertCritical,
		Timestamp:       r.now(),
		AffectedSystems: affected,
	}))
	r.metrics.EmergencyStops.Inc()

	if result.Evicted > 0 {
		slog.WarnContext(ctx, "Emergency alert missed some connections", "evicted", result.Evicted, "delivered", result.Delivered)
	}
	return "ok"
}

func (r *Router) reject(ctx context.Context, from broadcast.Conn, reply protocol.Message, cause error) {
	slog.InfoContext(ctx, "Rejecting command", "error", cause)
	if err := r.out.Send(from, reply); err != nil {
		slog.WarnContext(ctx, "Rejection not delivered", "error", err)
	}
}

func (r *Router) now() time.Time {
	return r.clock.Now().UTC()
}
