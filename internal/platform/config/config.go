package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8080"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	TickInterval    time.Duration `env:"TICK_INTERVAL" default:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	MaxConnections      int `env:"MAX_CONNECTIONS" default:"1000"`
	MaxConnectionsPerIP int `env:"MAX_CONNECTIONS_PER_IP" default:"50"`

	CommandRate  float64 `env:"COMMAND_RATE" default:"10"`
	CommandBurst int     `env:"COMMAND_BURST" default:"20"`
	UpgradeRate  float64 `env:"UPGRADE_RATE" default:"5"`
	UpgradeBurst int     `env:"UPGRADE_BURST" default:"10"`

	SendQueueSize int `env:"SEND_QUEUE_SIZE" default:"256"`

	// TrustedProxies is a comma-separated CIDR list whose X-Forwarded-For
	// header is believed. Empty means clients connect directly.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// IsDevelopment reports whether localhost dashboards may connect.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// Addr is the bind address for the hub.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ProxyNetworks parses TrustedProxies. Load has already validated it.
func (c *Config) ProxyNetworks() []*net.IPNet {
	networks, _ := parseCIDRs(c.TrustedProxies)
	return networks
}

func parseCIDRs(list string) ([]*net.IPNet, error) {
	var networks []*net.IPNet
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		_, network, err := net.ParseCIDR(item)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q is not a CIDR: %w", item, err)
		}
		networks = append(networks, network)
	}
	return networks, nil
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	if !slices.Contains([]string{"development", "production", "test"}, cfg.AppEnv) {
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", cfg.AppEnv)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	if !slices.Contains([]string{"text", "json"}, cfg.LogFormat) {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	positive := map[string]float64{
		"MAX_CONNECTIONS":        float64(cfg.MaxConnections),
		"MAX_CONNECTIONS_PER_IP": float64(cfg.MaxConnectionsPerIP),
		"COMMAND_RATE":           cfg.CommandRate,
		"COMMAND_BURST":          float64(cfg.CommandBurst),
		"UPGRADE_RATE":           cfg.UpgradeRate,
		"UPGRADE_BURST":          float64(cfg.UpgradeBurst),
		"SEND_QUEUE_SIZE":        float64(cfg.SendQueueSize),
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if cfg.SendQueueSize <= cfg.CommandBurst {
		return fmt.Errorf("SEND_QUEUE_SIZE (%d) must exceed COMMAND_BURST (%d)", cfg.SendQueueSize, cfg.CommandBurst)
	}

	if _, err := parseCIDRs(cfg.TrustedProxies); err != nil {
		return err
	}

	u, err := url.Parse(cfg.AppURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("APP_URL must be an absolute http(s) URL, got %q", cfg.AppURL)
	}
	if cfg.AppEnv == "production" && u.Scheme != "https" {
		return errors.New("APP_URL must use https in production")
	}

	return nil
}
