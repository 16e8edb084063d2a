// SmartThings Exporter - Prometheus metrics for SmartThings devices
//
// This is the main entry point for the exporter. It polls the SmartThings
// cloud API for the device inventory and per-device capability status,
// translates capability values into typed metrics, and serves them in
// Prometheus exposition format. An optional MQTT mirror publishes the
// same state as retained JSON for home automation consumers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/smartthings-exporter/internal/api"
	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/config"
	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/logging"
	"github.com/nerrad567/smartthings-exporter/internal/mapper"
	"github.com/nerrad567/smartthings-exporter/internal/mirror"
	"github.com/nerrad567/smartthings-exporter/internal/poller"
	"github.com/nerrad567/smartthings-exporter/internal/registry"
	"github.com/nerrad567/smartthings-exporter/internal/smartthings"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SmartThings exporter",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the upstream API client
	client, err := smartthings.New(cfg.SmartThings)
	if err != nil {
		return fmt.Errorf("creating SmartThings client: %w", err)
	}
	client.SetLogger(log.With("component", "smartthings"))
	log.Info("SmartThings client initialised", "base_url", cfg.SmartThings.BaseURL)

	// Sample registry and capability mapper
	reg := registry.New()
	m := mapper.New(mapper.Options{
		ConvertTemperature: cfg.Units.Temperature == "celsius",
		Logger:             log.With("component", "mapper"),
	})

	// Connect the MQTT state mirror (optional)
	var publisher poller.Publisher
	if cfg.Mirror.Enabled {
		mirrorClient, err := mirror.Connect(cfg.Mirror)
		if err != nil {
			return fmt.Errorf("connecting mirror: %w", err)
		}
		defer func() {
			log.Info("disconnecting mirror")
			if closeErr := mirrorClient.Close(); closeErr != nil {
				log.Error("error closing mirror", "error", closeErr)
			}
		}()
		mirrorClient.SetLogger(log.With("component", "mirror"))
		log.Info("mirror connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Mirror.Broker.Host, cfg.Mirror.Broker.Port),
			"client_id", cfg.Mirror.Broker.ClientID,
		)
		publisher = mirrorClient
	} else {
		log.Info("mirror disabled")
	}

	// Start the metrics server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log.With("component", "api"),
		Registry: reg,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating metrics server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting metrics server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing metrics server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, polling",
		"interval", cfg.GetPollInterval().String(),
	)

	// Run the poll loop until shutdown
	p := poller.New(client, m, reg, poller.Options{
		Interval:  cfg.GetPollInterval(),
		Publisher: publisher,
		Logger:    log.With("component", "poller"),
	})
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("poll loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Metrics server
	// 2. Mirror (if enabled)

	log.Info("SmartThings exporter stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses STEXPORTER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("STEXPORTER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
