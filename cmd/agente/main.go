// Package main is the entry point for the agente binary. It provides a CLI
// for running the whole agent in one process, validating rule files and
// answering one-off questions without a server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockbank/agente-ia/pkg/config"
	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/logging"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/server"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

const (
	defaultListen   = ":8080"
	defaultLogLevel = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agente",
		Short: "Deterministic banking assistant",
		Long: `A mock banking assistant that routes free-text questions to rule-based
specialist domains (consultas, cuentas, identidad, ia).

Run the whole agent in one process:
  agente serve --listen :8080

Ask a question without starting a server:
  agente preguntar "¿Qué tipo de cuenta ofrecéis?"`,
	}

	rootCmd.PersistentFlags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidarCmd())
	rootCmd.AddCommand(newPreguntarCmd())

	return rootCmd
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.NewLogger(logging.Config{
		Level:  level,
		Pretty: true, // Use pretty logging for CLI
	})
	slog.SetDefault(logger)
	return logger
}

// builtinResponders instantiates one responder per domain from the built-in
// tables.
func builtinResponders(logger *slog.Logger) (map[domain.Dominio]*responder.Responder, error) {
	responders := make(map[domain.Dominio]*responder.Responder, len(domain.Dominios))
	for _, d := range domain.Dominios {
		table, err := responder.BuiltinTable(d)
		if err != nil {
			return nil, err
		}
		rsp, err := responder.New(table, logger)
		if err != nil {
			return nil, fmt.Errorf("build %s responder: %w", d, err)
		}
		responders[d] = rsp
	}
	return responders, nil
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator and all four specialists in one process",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", defaultListen, "HTTP listen address")
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := cliLogger(cmd)
	listen, _ := cmd.Flags().GetString("listen")

	responders, err := builtinResponders(logger)
	if err != nil {
		return err
	}
	delegate, err := router.NewLocalDelegate(responders)
	if err != nil {
		return err
	}
	rt, err := router.New(router.Config{
		Tables:   responder.BuiltinTables(),
		Delegate: delegate,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	srv, err := server.NewOrchestrator(server.OrchestratorConfig{
		ListenAddr:  listen,
		ServiceName: "agente",
		Router:      rt,
		Auth:        token.NewAuthority(0),
		Metrics:     telemetry.NewMetrics(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("agente starting", "listen_addr", listen)
	return srv.Start(ctx)
}

func newValidarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validar <fichero.yaml> [fichero.yaml...]",
		Short: "Validate rule files without starting a server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed bool
			for _, path := range args {
				table, err := config.LoadRuleTable(path)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (dominio=%s, reglas=%d)\n", path, table.Domain, len(table.Rules))
			}
			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

func newPreguntarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preguntar <pregunta>",
		Short: "Answer one question locally and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cliLogger(cmd)

			responders, err := builtinResponders(logger)
			if err != nil {
				return err
			}
			delegate, err := router.NewLocalDelegate(responders)
			if err != nil {
				return err
			}
			rt, err := router.New(router.Config{
				Tables:   responder.BuiltinTables(),
				Delegate: delegate,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			answer, c, err := rt.Route(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", c.Domain, answer)
			return nil
		},
	}
}
