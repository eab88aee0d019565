// Package main implements the entry point for the NeuroStreams
// application: a streaming platform that labels cortical region
// observations with their resting-state network and answers atlas
// queries over NATS.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/config"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/output/websocket"
	annotateprocessor "github.com/c360/neurostreams/processor/annotate"
	lookupservice "github.com/c360/neurostreams/service/lookup"
)

// Build information constants
const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "neurostreams"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting NeuroStreams",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := natsclient.NewClient(cfg.NATS.URL(),
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(metricsRegistry),
		natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password),
		natsclient.WithToken(cfg.NATS.Token),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = natsClient.Close(closeCtx)
	}()

	if err := connectToNATS(ctx, natsClient); err != nil {
		return err
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Stop() }()
		slog.Info("Metrics server started", "address", metricsServer.Address())
	}

	deps := component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
		Platform: component.PlatformMeta{
			Org:         cfg.Platform.Org,
			ID:          cfg.Platform.ID,
			Environment: cfg.Platform.Environment,
		},
	}

	manager, err := buildComponents(cfg, deps)
	if err != nil {
		return err
	}

	return runWithSignalHandling(ctx, manager, cliCfg.ShutdownTimeout)
}

// connectToNATS establishes the NATS connection, retrying transient
// failures, and waits for it to become healthy.
func connectToNATS(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS", "url", natsClient.URL())
	retryCfg := errors.DefaultRetryConfig().ToRetryConfig()
	if err := natsClient.ConnectWithRetry(ctx, retryCfg); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	return nil
}

// buildComponents constructs the enabled components and registers them
// with a lifecycle manager in dependency order.
func buildComponents(cfg *config.Config, deps component.Dependencies) (*component.Manager, error) {
	manager := component.NewManager()

	if cfg.Lookup.Enabled {
		raw, _ := json.Marshal(lookupservice.Config{
			Subject:        cfg.Lookup.Subject,
			RegionsSubject: cfg.Lookup.RegionsSubject,
		})
		svc, err := lookupservice.NewService(raw, deps)
		if err != nil {
			return nil, fmt.Errorf("create lookup service: %w", err)
		}
		manager.Register(svc)
	}

	if cfg.Annotator.Enabled {
		raw, _ := json.Marshal(annotateprocessor.Config{
			InputSubject:  cfg.Annotator.InputSubject,
			OutputSubject: cfg.Annotator.OutputSubject,
			StreamName:    cfg.Annotator.StreamName,
		})
		proc, err := annotateprocessor.NewProcessor(raw, deps)
		if err != nil {
			return nil, fmt.Errorf("create annotator: %w", err)
		}
		manager.Register(proc)
	}

	if cfg.Websocket.Enabled {
		raw, _ := json.Marshal(websocket.Config{
			Port:    cfg.Websocket.Port,
			Path:    cfg.Websocket.Path,
			Subject: cfg.Websocket.Subject,
		})
		out, err := websocket.NewOutput(raw, deps)
		if err != nil {
			return nil, fmt.Errorf("create websocket output: %w", err)
		}
		manager.Register(out)
	}

	slog.Info("Components configured", "components", manager.Names())
	return manager, nil
}

// runWithSignalHandling starts components and blocks until a shutdown
// signal arrives.
func runWithSignalHandling(ctx context.Context, manager *component.Manager, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := manager.InitializeAll(); err != nil {
		return fmt.Errorf("initialize components: %w", err)
	}
	if err := manager.StartAll(signalCtx, shutdownTimeout); err != nil {
		return fmt.Errorf("start components: %w", err)
	}
	slog.Info("NeuroStreams started")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := manager.StopAll(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("NeuroStreams shutdown complete")
	return nil
}

// loadConfig loads configuration from the specified file path
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
