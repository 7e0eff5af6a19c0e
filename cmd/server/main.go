package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pscheid92/plantpulse/internal/hub"
	"github.com/pscheid92/plantpulse/internal/platform/config"
	"github.com/pscheid92/plantpulse/internal/platform/logging"
	"github.com/pscheid92/plantpulse/internal/platform/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func hubConfig(cfg *config.Config) hub.Config {
	return hub.Config{
		Addr:                cfg.Addr(),
		TickInterval:        cfg.TickInterval,
		AppURL:              cfg.AppURL,
		IsDevelopment:       cfg.IsDevelopment(),
		MaxConnections:      cfg.MaxConnections,
		MaxConnectionsPerIP: cfg.MaxConnectionsPerIP,
		CommandRate:         cfg.CommandRate,
		CommandBurst:        cfg.CommandBurst,
		UpgradeRate:         cfg.UpgradeRate,
		UpgradeBurst:        cfg.UpgradeBurst,
		SendQueueSize:       cfg.SendQueueSize,
		TrustedProxies:      cfg.ProxyNetworks(),
	}
}

func runGracefulShutdown(h *hub.Hub, cfg *config.Config) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("Shutdown signal received, stopping hub", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := h.Stop(ctx); err != nil {
			slog.Error("Hub shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "build", version.Get().String())

	h, err := hub.Start(hubConfig(cfg))
	if err != nil {
		slog.Error("Failed to start hub", "error", err)
		os.Exit(1)
	}

	<-runGracefulShutdown(h, cfg)
	slog.Info("Application stopped")
}
