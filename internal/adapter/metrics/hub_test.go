package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHubMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHubMetrics(reg)

	m.ActiveConnections.Set(3)
	m.Broadcasts.WithLabelValues("METRICS_UPDATE").Inc()
	m.Commands.WithLabelValues("REACTOR_CONTROL", "ok").Add(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("METRICS_UPDATE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("REACTOR_CONTROL", "ok")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "plantpulse_hub_active_connections")
	assert.Contains(t, names, "plantpulse_broadcast_messages_total")
	assert.Contains(t, names, "plantpulse_commands_handled_total")
}

func TestNewHubMetrics_SeparateRegistriesDoNotConflict(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHubMetrics(prometheus.NewRegistry())
		NewHubMetrics(prometheus.NewRegistry())
	})
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/version", func(c echo.Context) error { return c.String(http.StatusOK, "dev") })
	e.GET("/health/live", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/version", "/version", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/version", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/health/live", "200")))
}

func TestHandler_ServesRegistryConnectionsTotal(t *testing.T) {
	reg := NewRegistry()
	NewHubMetrics(reg).ConnectionsTotal.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "plantpulse_hub_connections_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegisterConnectionSlots_ReadsCurrentValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	var held int64 = 2
	g := RegisterConnectionSlots(reg, func() int64 { return held })

	assert.Equal(t, 2.0, testutil.ToFloat64(g))
	held = 5
	assert.Equal(t, 5.0, testutil.ToFloat64(g))
}
