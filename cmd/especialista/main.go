// Package main wires one specialist service: a rule-table responder behind
// the shared token-protected HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mockbank/agente-ia/pkg/config"
	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/logging"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/server"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

const (
	defaultConfigPath        = ""
	telemetryShutdownTimeout = 5 * time.Second
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	configPath := flag.String("config-path", defaultConfigPath, "Path to the configuration file")
	listenAddr := flag.String("listen", "", "HTTP listen address")
	dominio := flag.String("dominio", "", "Specialist domain (consultas, cuentas, identidad, ia)")
	rulesFile := flag.String("rules-file", "", "Path to a YAML rule file overriding the built-in table")
	logLevel := flag.String("log-level", "", "Log level")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration load failed: %v", err)
	}

	// Apply flag overrides
	if *listenAddr != "" {
		cfg.Server.ListenAddress = *listenAddr
	}
	if *dominio != "" {
		cfg.Rules.Dominio = *dominio
	}
	if *rulesFile != "" {
		cfg.Rules.File = *rulesFile
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *otelEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = *otelEndpoint
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("application failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	d, err := cfg.Dominio()
	if err != nil {
		return fmt.Errorf("resolve specialist domain: %w", err)
	}

	telemetryShutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "agente-" + string(d),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: os.Getenv("AGENTE_ENVIRONMENT"),
		Rol:         "especialista",
		Dominio:     string(d),
	})
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	defer shutdownTelemetry(logger, telemetryShutdown)

	table, err := resolveTable(cfg, d)
	if err != nil {
		return err
	}

	rsp, err := responder.New(table, logger)
	if err != nil {
		return fmt.Errorf("build responder: %w", err)
	}

	metrics := telemetry.NewMetrics()

	if cfg.Rules.File != "" && cfg.Rules.Watch {
		watcher, err := config.NewRuleWatcher(cfg.Rules.File, func(t domain.RuleTable) error {
			if t.Domain != d {
				metrics.RecordRuleReload("rejected")
				return fmt.Errorf("%w: rule file serves %q, this specialist is %q", domain.ErrConfigInvalid, t.Domain, d)
			}
			if err := rsp.Swap(t); err != nil {
				metrics.RecordRuleReload("error")
				return err
			}
			metrics.RecordRuleReload("success")
			return nil
		}, logger)
		if err != nil {
			return fmt.Errorf("create rule watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start rule watcher: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	srv, err := server.NewSpecialist(server.SpecialistConfig{
		ListenAddr:  cfg.Server.ListenAddress,
		ServiceName: "agente-" + string(d),
		Responder:   rsp,
		Auth:        token.NewAuthority(cfg.Auth.TokenTTL.Std()),
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	logger.Info("specialist starting",
		"dominio", string(d),
		"listen_addr", cfg.Server.ListenAddress,
		"reglas", len(table.Rules),
	)
	return srv.Start(ctx)
}

// resolveTable picks the rule file when configured, the built-in table
// otherwise. A rule file for a different domain is a configuration error.
func resolveTable(cfg *config.Config, d domain.Dominio) (domain.RuleTable, error) {
	if cfg.Rules.File == "" {
		return responder.BuiltinTable(d)
	}
	table, err := config.LoadRuleTable(cfg.Rules.File)
	if err != nil {
		return domain.RuleTable{}, err
	}
	if table.Domain != d {
		return domain.RuleTable{}, fmt.Errorf("%w: rule file serves %q, this specialist is %q", domain.ErrConfigInvalid, table.Domain, d)
	}
	return table, nil
}

func shutdownTelemetry(logger *slog.Logger, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
}
