package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

// Server hosts one agent service: either a specialist or the orchestrator.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
	stopOnce   sync.Once
}

// SpecialistConfig wires a specialist server.
type SpecialistConfig struct {
	ListenAddr  string
	ServiceName string
	Responder   *responder.Responder
	Auth        *token.Authority
	Metrics     *telemetry.Metrics
	Logger      *slog.Logger
}

// NewSpecialist builds the HTTP server of one specialist domain.
func NewSpecialist(cfg SpecialistConfig) (*Server, error) {
	if cfg.Responder == nil {
		return nil, fmt.Errorf("specialist server requires a responder")
	}
	base, err := baseComponents(cfg.Auth, cfg.Metrics, cfg.Logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerShared(mux, base)
	mux.Handle("POST /respuesta", handleAnswer(cfg.Responder, base.metrics, base.logger))

	return newServer(cfg.ListenAddr, cfg.ServiceName, mux, base), nil
}

// OrchestratorConfig wires the orchestrator server.
type OrchestratorConfig struct {
	ListenAddr  string
	ServiceName string
	Router      *router.Router
	Auth        *token.Authority
	Metrics     *telemetry.Metrics
	Logger      *slog.Logger
}

// NewOrchestrator builds the orchestrator's HTTP server.
func NewOrchestrator(cfg OrchestratorConfig) (*Server, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("orchestrator server requires a router")
	}
	base, err := baseComponents(cfg.Auth, cfg.Metrics, cfg.Logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerShared(mux, base)
	mux.Handle("POST /consulta", handleConsult(cfg.Router, base.metrics, base.logger))

	return newServer(cfg.ListenAddr, cfg.ServiceName, mux, base), nil
}

type components struct {
	auth    *token.Authority
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func baseComponents(auth *token.Authority, metrics *telemetry.Metrics, logger *slog.Logger) (components, error) {
	if auth == nil {
		return components{}, fmt.Errorf("server requires a token authority")
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return components{auth: auth, metrics: metrics, logger: logger}, nil
}

// registerShared mounts the endpoints every service exposes.
func registerShared(mux *http.ServeMux, base components) {
	mux.Handle("POST /token", handleToken(base.auth, base.metrics, base.logger))
	mux.Handle("GET /healthz", handleHealth())
	mux.Handle("GET /metrics", base.metrics.Handler())
}

func newServer(addr, serviceName string, mux *http.ServeMux, base components) *Server {
	// Auth runs outermost so unauthorized requests are refused before any
	// route matching; metrics still see them through the auth counter.
	var handler http.Handler = mux
	handler = base.metrics.Middleware(handler)
	handler = bearerAuth(base.auth, base.metrics, base.logger, handler)
	handler = otelhttp.NewHandler(handler, serviceName)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: handler,
		logger:  base.logger,
	}
}

// Handler returns the fully assembled handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the server until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully shuts the server down, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.logger.Info("HTTP server stopping", "addr", s.httpServer.Addr)
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}
