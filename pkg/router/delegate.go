package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
)

// Delegate forwards a classified question to a specialist and returns its
// answer text.
type Delegate interface {
	Ask(ctx context.Context, d domain.Dominio, pregunta string) (string, error)
}

// HTTPDelegate talks to specialist services over their /respuesta endpoint.
// It obtains a service token from each specialist's own /token endpoint,
// caches it, and refreshes it once when the specialist answers 401.
type HTTPDelegate struct {
	endpoints map[domain.Dominio]string
	client    *http.Client
	logger    *slog.Logger

	mu     sync.Mutex
	tokens map[domain.Dominio]string
}

// HTTPDelegateConfig configures an HTTPDelegate.
type HTTPDelegateConfig struct {
	// Endpoints maps each domain to its specialist base URL.
	Endpoints map[domain.Dominio]string
	// Timeout bounds each upstream call. Zero selects 5s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewHTTPDelegate builds a delegate for the configured specialist endpoints.
func NewHTTPDelegate(cfg HTTPDelegateConfig) (*HTTPDelegate, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: orchestrator has no specialist endpoints", domain.ErrConfigInvalid)
	}
	for d, base := range cfg.Endpoints {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: endpoint for %q", domain.ErrUnknownDomain, d)
		}
		if base == "" {
			return nil, fmt.Errorf("%w: empty endpoint for %q", domain.ErrConfigInvalid, d)
		}
	}
	for _, d := range domain.Dominios {
		if _, ok := cfg.Endpoints[d]; !ok {
			return nil, fmt.Errorf("%w: missing endpoint for %q", domain.ErrConfigInvalid, d)
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	endpoints := make(map[domain.Dominio]string, len(cfg.Endpoints))
	for d, base := range cfg.Endpoints {
		endpoints[d] = base
	}

	return &HTTPDelegate{
		endpoints: endpoints,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
		tokens: make(map[domain.Dominio]string),
	}, nil
}

// Ask posts the question to the specialist and returns its answer. Any
// transport failure or non-200 status maps to ErrUpstreamUnreachable, which
// the HTTP layer surfaces as 502. There is no retry beyond a single token
// refresh on 401.
func (h *HTTPDelegate) Ask(ctx context.Context, d domain.Dominio, pregunta string) (string, error) {
	base, ok := h.endpoints[d]
	if !ok {
		return "", fmt.Errorf("%w: no endpoint for %q", domain.ErrUnknownDomain, d)
	}

	tok, err := h.serviceToken(ctx, d, base)
	if err != nil {
		return "", err
	}

	answer, status, err := h.post(ctx, base, tok, pregunta)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized {
		// The specialist restarted and forgot our token. Mint a new
		// one and try the same request once.
		h.logger.Info("service token rejected, refreshing", "dominio", string(d))
		tok, err = h.refreshToken(ctx, d, base)
		if err != nil {
			return "", err
		}
		answer, status, err = h.post(ctx, base, tok, pregunta)
		if err != nil {
			return "", err
		}
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s answered status %d", domain.ErrUpstreamUnreachable, d, status)
	}
	return answer, nil
}

func (h *HTTPDelegate) post(ctx context.Context, base, tok, pregunta string) (string, int, error) {
	payload, err := json.Marshal(domain.QuestionRequest{Pregunta: pregunta})
	if err != nil {
		return "", 0, fmt.Errorf("encode question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/respuesta", bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, nil
	}

	var answer domain.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", 0, fmt.Errorf("%w: decode answer: %v", domain.ErrUpstreamUnreachable, err)
	}
	return answer.Respuesta, resp.StatusCode, nil
}

func (h *HTTPDelegate) serviceToken(ctx context.Context, d domain.Dominio, base string) (string, error) {
	h.mu.Lock()
	tok, ok := h.tokens[d]
	h.mu.Unlock()
	if ok {
		return tok, nil
	}
	return h.refreshToken(ctx, d, base)
}

func (h *HTTPDelegate) refreshToken(ctx context.Context, d domain.Dominio, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/token", nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: obtain token from %s: %v", domain.ErrUpstreamUnreachable, d, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s token endpoint answered status %d", domain.ErrUpstreamUnreachable, d, resp.StatusCode)
	}

	var body domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode token from %s: %v", domain.ErrUpstreamUnreachable, d, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: %s returned an empty token", domain.ErrUpstreamUnreachable, d)
	}

	h.mu.Lock()
	h.tokens[d] = body.AccessToken
	h.mu.Unlock()

	return body.AccessToken, nil
}

// LocalDelegate answers through in-process responders. Used by the all-in-one
// `agente serve` mode and by tests.
type LocalDelegate struct {
	responders map[domain.Dominio]*responder.Responder
}

// NewLocalDelegate wires one responder per domain.
func NewLocalDelegate(responders map[domain.Dominio]*responder.Responder) (*LocalDelegate, error) {
	for _, d := range domain.Dominios {
		if responders[d] == nil {
			return nil, fmt.Errorf("%w: missing responder for %q", domain.ErrConfigInvalid, d)
		}
	}
	return &LocalDelegate{responders: responders}, nil
}

// Ask answers in process; it cannot fail upstream.
func (l *LocalDelegate) Ask(_ context.Context, d domain.Dominio, pregunta string) (string, error) {
	r, ok := l.responders[d]
	if !ok {
		return "", fmt.Errorf("%w: no responder for %q", domain.ErrUnknownDomain, d)
	}
	return r.Answer(pregunta).Respuesta, nil
}
