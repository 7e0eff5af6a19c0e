package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "http://localhost:8080", cfg.AppURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1000, cfg.MaxConnections)
	assert.Equal(t, 50, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 10.0, cfg.CommandRate)
	assert.Equal(t, 20, cfg.CommandBurst)
	assert.Equal(t, 5.0, cfg.UpgradeRate)
	assert.Equal(t, 10, cfg.UpgradeBurst)
	assert.Equal(t, 256, cfg.SendQueueSize)
	assert.Empty(t, cfg.ProxyNetworks())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_URL", "https://plant.example.com")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("MAX_CONNECTIONS", "42")
	t.Setenv("COMMAND_RATE", "2.5")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 42, cfg.MaxConnections)
	assert.Equal(t, 2.5, cfg.CommandRate)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.0/24")

	cfg, err := Load()
	require.NoError(t, err)

	networks := cfg.ProxyNetworks()
	require.Len(t, networks, 2)
	assert.Equal(t, "10.0.0.0/8", networks[0].String())
	assert.Equal(t, "192.168.1.0/24", networks[1].String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"port not numeric", "PORT", "http", "PORT must be a number between 1 and 65535"},
		{"port out of range", "PORT", "70000", "PORT must be a number between 1 and 65535"},
		{"port zero", "PORT", "0", "PORT must be a number between 1 and 65535"},
		{"zero tick interval", "TICK_INTERVAL", "0s", "TICK_INTERVAL must be positive"},
		{"negative tick interval", "TICK_INTERVAL", "-1s", "TICK_INTERVAL must be positive"},
		{"zero max connections", "MAX_CONNECTIONS", "0", "MAX_CONNECTIONS must be positive"},
		{"zero command rate", "COMMAND_RATE", "0", "COMMAND_RATE must be positive"},
		{"zero upgrade burst", "UPGRADE_BURST", "0", "UPGRADE_BURST must be positive"},
		{"zero send queue", "SEND_QUEUE_SIZE", "0", "SEND_QUEUE_SIZE must be positive"},
		{"send queue within one burst", "SEND_QUEUE_SIZE", "20", "SEND_QUEUE_SIZE (20) must exceed COMMAND_BURST (20)"},
		{"bad trusted proxy", "TRUSTED_PROXIES", "10.0.0.0/8,proxy.local", `TRUSTED_PROXIES entry "proxy.local" is not a CIDR`},
		{"unknown log level", "LOG_LEVEL", "verbose", "LOG_LEVEL must be debug, info, warn or error"},
		{"unknown log format", "LOG_FORMAT", "xml", "LOG_FORMAT must be text or json"},
		{"unknown env", "APP_ENV", "staging", "APP_ENV must be development, production or test"},
		{"relative app url", "APP_URL", "/dashboard", "APP_URL must be an absolute http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ProductionRequiresHTTPS(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_URL", "http://plant.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_URL must use https in production")
}

func TestLoad_UnparseableDuration(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load environment variables")
}
