// Command prometheus-dyson exports Dyson fan and air purifier state as
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/nickrw/prometheus-dyson/internal/account"
	"github.com/nickrw/prometheus-dyson/internal/config"
	"github.com/nickrw/prometheus-dyson/internal/metrics"
	"github.com/nickrw/prometheus-dyson/internal/monitor"
	"github.com/nickrw/prometheus-dyson/internal/server"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// setupLogger configures structured logging for the requested level.
func setupLogger(logLevel string) {
	level := slog.LevelInfo

	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("could not parse command line", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting prometheus-dyson",
		"version", version,
		"build_time", buildTime,
		"port", cfg.Port,
		"log_level", cfg.LogLevel)

	creds, err := config.ReadCredentials(cfg.ConfigFile)
	if err != nil {
		slog.Error("could not load configuration file", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(account.NewClient(creds.Account), creds.Hosts)
	if err := mon.Login(ctx); err != nil {
		os.Exit(1)
	}
	if err := mon.Monitor(ctx, m.Update, cfg.OnlyActiveDevices); err != nil {
		slog.Error("could not start device monitoring", "error", err)
		os.Exit(1)
	}
	defer mon.Close()

	// Blocks until an interrupt or termination request, then shuts the
	// endpoint down gracefully.
	if err := server.Run(ctx, cfg.Port, registry); err != nil {
		slog.Error("shutdown with error", "error", err)
		return
	}
	slog.Info("shutdown complete")
}
