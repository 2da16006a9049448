// Package main wires the orchestrator service: classify incoming questions
// and delegate them to the configured specialist services.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mockbank/agente-ia/pkg/config"
	"github.com/mockbank/agente-ia/pkg/logging"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/server"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	configPath := flag.String("config-path", "", "Path to the configuration file")
	listenAddr := flag.String("listen", "", "HTTP listen address")
	logLevel := flag.String("log-level", "", "Log level")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint")
	endpoints := flag.String("endpoints", "", "Comma-separated dominio=url pairs overriding configured specialist endpoints")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration load failed: %v", err)
	}

	// Apply flag overrides
	if *listenAddr != "" {
		cfg.Server.ListenAddress = *listenAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *otelEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = *otelEndpoint
	}
	if *endpoints != "" {
		if err := applyEndpointOverrides(cfg, *endpoints); err != nil {
			log.Fatalf("invalid -endpoints flag: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("application failed: %v", err)
	}
}

func applyEndpointOverrides(cfg *config.Config, raw string) error {
	if cfg.Orchestrator.Endpoints == nil {
		cfg.Orchestrator.Endpoints = make(map[string]string)
	}
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			return fmt.Errorf("expected dominio=url, got %q", pair)
		}
		cfg.Orchestrator.Endpoints[name] = url
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	telemetryShutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "agente-orquestador",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: os.Getenv("AGENTE_ENVIRONMENT"),
		Rol:         "orquestador",
	})
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	defer shutdownTelemetry(logger, telemetryShutdown)

	eps, err := cfg.Endpoints()
	if err != nil {
		return err
	}

	delegate, err := router.NewHTTPDelegate(router.HTTPDelegateConfig{
		Endpoints: eps,
		Timeout:   cfg.Orchestrator.RequestTimeout.Std(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build delegate: %w", err)
	}

	rt, err := router.New(router.Config{
		Tables:   responder.BuiltinTables(),
		Delegate: delegate,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv, err := server.NewOrchestrator(server.OrchestratorConfig{
		ListenAddr:  cfg.Server.ListenAddress,
		ServiceName: "agente-orquestador",
		Router:      rt,
		Auth:        token.NewAuthority(cfg.Auth.TokenTTL.Std()),
		Metrics:     telemetry.NewMetrics(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	logger.Info("orchestrator starting",
		"listen_addr", cfg.Server.ListenAddress,
		"especialistas", len(eps),
	)
	return srv.Start(ctx)
}

func shutdownTelemetry(logger *slog.Logger, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
}
