package hub

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pscheid92/plantpulse/internal/broadcast"
	apperrors "github.com/pscheid92/plantpulse/internal/errors"
	"github.com/pscheid92/plantpulse/internal/platform/correlation"
	"github.com/pscheid92/plantpulse/internal/protocol"
	"golang.org/x/time/rate"
)

const maxMessageSize = 64 * 1024

// Accept upgrades r, sends the initial snapshot, registers the connection and
// starts its read loop. Errors returned before the upgrade are meant for the
// HTTP error middleware; once the upgrade has been attempted the response is
// already written and nil is returned.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, remoteIP string) error {
	if err := h.checkReady(r.Context()); err != nil {
		h.metrics.RejectedUpgrades.WithLabelValues("stopping").Inc()
		return apperrors.CapacityError("hub is stopping")
	}

	reason, ok := h.limits.Acquire(remoteIP)
	if !ok {
		h.metrics.RejectedUpgrades.WithLabelValues(string(reason)).Inc()
		return apperrors.CapacityError("connection limit reached").WithContext("reason", string(reason))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.limits.Release(remoteIP)
		h.metrics.RejectedUpgrades.WithLabelValues("upgrade_failed").Inc()
		slog.WarnContext(r.Context(), "WebSocket upgrade failed", "remote_ip", remoteIP, "error", err)
		return nil
	}
	conn.SetReadLimit(maxMessageSize)

	cw := broadcast.NewClientWriter(conn, h.clock, h.cfg.SendQueueSize)
	ctx := correlation.WithConnection(h.ctx, cw.ID().String())

	h.mu.Lock()
	if h.stopping {
		h.mu.Unlock()
		cw.Close(stopReason)
		h.limits.Release(remoteIP)
		return nil
	}
	h.readers.Add(1)
	h.mu.Unlock()

	go h.serveConnection(ctx, conn, cw, remoteIP)
	return nil
}

func (h *Hub) serveConnection(ctx context.Context, conn *websocket.Conn, cw *broadcast.ClientWriter, remoteIP string) {
	defer h.readers.Done()
	defer h.limits.Release(remoteIP)

	// The initial state goes out before the connection joins the registry,
	// so it is always the first message the dashboard sees.
	if err := h.broadcaster.Send(cw, protocol.InitialState(h.generator.Snapshot())); err != nil {
		slog.WarnContext(ctx, "Initial state not delivered", "error", err)
		cw.Close("initial state not delivered")
		return
	}

	h.conns.Add(cw)
	h.metrics.ConnectionsTotal.Inc()

	// Stop may have taken its registry snapshot before Add.
	h.mu.Lock()
	stopping := h.stopping
	h.mu.Unlock()
	if stopping {
		h.conns.Remove(cw)
		cw.Close(stopReason)
		return
	}

	slog.InfoContext(ctx, "Dashboard connected", "remote_ip", remoteIP, "active_connections", h.conns.Len())
	defer h.disconnect(ctx, cw)

	commands := rate.NewLimiter(rate.Limit(h.cfg.CommandRate), h.cfg.CommandBurst)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(ctx, "Read loop ended", "error", err)
			}
			return
		}
		cw.Touch()

		if msgType != websocket.TextMessage {
			slog.DebugContext(ctx, "Ignoring non-text frame", "frame_type", msgType)
			continue
		}
		h.router.Handle(ctx, cw, data, commands)
	}
}

func (h *Hub) disconnect(ctx context.Context, cw *broadcast.ClientWriter) {
	removed := h.conns.Remove(cw)
	cw.Close("")
	if removed {
		slog.InfoContext(ctx, "Dashboard disconnected", "active_connections", h.conns.Len())
	}
}
