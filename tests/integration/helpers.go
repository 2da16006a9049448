// Package integration spins up the orchestrator and the four specialist
// services in one process, wired over real HTTP, and exercises the public
// contract end to end.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/server"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Stack is a fully wired agent: four specialist servers plus the
// orchestrator, each with its own token authority.
type Stack struct {
	Orchestrator *httptest.Server
	Specialists  map[domain.Dominio]*httptest.Server
}

// NewStack starts the five services. Callers stop them through t.Cleanup.
func NewStack(t *testing.T) *Stack {
	t.Helper()

	specialists := make(map[domain.Dominio]*httptest.Server, len(domain.Dominios))
	endpoints := make(map[domain.Dominio]string, len(domain.Dominios))

	for _, d := range domain.Dominios {
		table, err := responder.BuiltinTable(d)
		if err != nil {
			t.Fatalf("builtin table for %s: %v", d, err)
		}
		rsp, err := responder.New(table, testLogger())
		if err != nil {
			t.Fatalf("build %s responder: %v", d, err)
		}
		srv, err := server.NewSpecialist(server.SpecialistConfig{
			ListenAddr:  ":0",
			ServiceName: "agente-" + string(d),
			Responder:   rsp,
			Auth:        token.NewAuthority(0),
			Metrics:     telemetry.NewMetrics(),
			Logger:      testLogger(),
		})
		if err != nil {
			t.Fatalf("build %s server: %v", d, err)
		}
		ts := httptest.NewServer(srv.Handler())
		t.Cleanup(ts.Close)
		specialists[d] = ts
		endpoints[d] = ts.URL
	}

	delegate, err := router.NewHTTPDelegate(router.HTTPDelegateConfig{
		Endpoints: endpoints,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("build delegate: %v", err)
	}
	rt, err := router.New(router.Config{
		Tables:   responder.BuiltinTables(),
		Delegate: delegate,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	orch, err := server.NewOrchestrator(server.OrchestratorConfig{
		ListenAddr:  ":0",
		ServiceName: "agente-orquestador",
		Router:      rt,
		Auth:        token.NewAuthority(0),
		Metrics:     telemetry.NewMetrics(),
		Logger:      testLogger(),
	})
	if err != nil {
		t.Fatalf("build orchestrator: %v", err)
	}
	ts := httptest.NewServer(orch.Handler())
	t.Cleanup(ts.Close)

	return &Stack{Orchestrator: ts, Specialists: specialists}
}

func closeBody(t *testing.T, c io.Closer) {
	t.Helper()
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close body: %v", err)
	}
}

// ObtainToken mints a bearer token from the given service base URL.
func ObtainToken(t *testing.T, baseURL string) string {
	t.Helper()

	resp, err := http.Post(baseURL+"/token", "application/json", nil)
	if err != nil {
		t.Fatalf("token request failed: %v", err)
	}
	defer closeBody(t, resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token endpoint answered %d", resp.StatusCode)
	}

	var body domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatal("token endpoint returned an empty token")
	}
	return body.AccessToken
}

// PostQuestion sends a question to the given path with an optional bearer
// token and returns the raw response. The caller owns the body.
func PostQuestion(t *testing.T, baseURL, path, bearer, pregunta string) *http.Response {
	t.Helper()

	payload, err := json.Marshal(domain.QuestionRequest{Pregunta: pregunta})
	if err != nil {
		t.Fatalf("encode question: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// Answer extracts the "respuesta" field, failing on non-200 responses.
func Answer(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer closeBody(t, resp.Body)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	var body domain.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	return body.Respuesta
}
