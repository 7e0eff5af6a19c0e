package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/plantpulse/internal/platform/version"
)

// Each readiness check must answer within this.
const readinessCheckTimeout = 2 * time.Second

// HealthCheck is a named readiness check. A non-nil error marks the hub
// unready, e.g. while it drains connections during Stop.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Status:        "ok",
		StartedAt:     s.startTime.UTC(),
		UptimeSeconds: s.clock.Since(s.startTime).Seconds(),
	})
}

// handleReadiness runs every check and reports each result, so an operator
// sees all failing checks at once rather than the first.
func (s *Server) handleReadiness(c echo.Context) error {
	resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(s.healthChecks))}
	status := http.StatusOK

	for _, hc := range s.healthChecks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessCheckTimeout)
		err := hc.Check(ctx)
		cancel()

		if err != nil {
			resp.Checks[hc.Name] = err.Error()
			resp.Status = "unready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}

	return c.JSON(status, resp)
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
