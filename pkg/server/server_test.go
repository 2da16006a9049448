package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSpecialistServer(t *testing.T, d domain.Dominio) *Server {
	t.Helper()
	table, err := responder.BuiltinTable(d)
	require.NoError(t, err)
	rsp, err := responder.New(table, testLogger())
	require.NoError(t, err)
	srv, err := NewSpecialist(SpecialistConfig{
		ListenAddr:  ":0",
		ServiceName: "agente-" + string(d),
		Responder:   rsp,
		Auth:        token.NewAuthority(0),
		Metrics:     telemetry.NewMetrics(),
		Logger:      testLogger(),
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func obtainToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/token", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "bearer", body.TokenType)
	return body.AccessToken
}

func TestTokenRoundTrip(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioCuentas).Handler()
	tok := obtainToken(t, h)

	rec := do(t, h, http.MethodPost, "/respuesta", tok, domain.QuestionRequest{Pregunta: "¿Qué tipo de cuenta ofrecéis?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer domain.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Contains(t, answer.Respuesta, "Ofrecemos cuentas corrientes")
}

func TestMissingTokenRejected(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioCuentas).Handler()

	rec := do(t, h, http.MethodPost, "/respuesta", "", domain.QuestionRequest{Pregunta: "saldo"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "AUTHN_FAILED", errResp.Code)
}

func TestForeignTokenRejected(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioCuentas).Handler()

	rec := do(t, h, http.MethodPost, "/respuesta", "token-de-otro-proceso", domain.QuestionRequest{Pregunta: "saldo"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicEndpointsNeedNoToken(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioIA).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthorizedBeforeRouteMatching(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioIA).Handler()

	// Unknown path without a token must read as 401, not 404.
	rec := do(t, h, http.MethodGet, "/no-such-path", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioConsultas).Handler()
	tok := obtainToken(t, h)

	req := httptest.NewRequest(http.MethodPost, "/respuesta", bytes.NewReader([]byte("{no es json")))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "BAD_REQUEST", errResp.Code)
}

func TestBlankQuestionGetsFallback(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioConsultas).Handler()
	tok := obtainToken(t, h)

	// A blank question is not a client error: it matches no rule and gets
	// the table's fallback with a 200, same as any other unmatched query.
	for _, pregunta := range []string{"", "   "} {
		rec := do(t, h, http.MethodPost, "/respuesta", tok, domain.QuestionRequest{Pregunta: pregunta})
		require.Equal(t, http.StatusOK, rec.Code)

		var answer domain.AnswerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
		assert.Contains(t, answer.Respuesta, "No tengo información suficiente")
	}
}

func TestMissingQuestionFieldIs400(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioConsultas).Handler()
	tok := obtainToken(t, h)

	rec := do(t, h, http.MethodPost, "/respuesta", tok, map[string]string{"texto": "saldo"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "BAD_REQUEST", errResp.Code)
}

func TestFallbackAnswersOK(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioIA).Handler()
	tok := obtainToken(t, h)

	rec := do(t, h, http.MethodPost, "/respuesta", tok, domain.QuestionRequest{Pregunta: "¿Cuál es el color del cielo?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer domain.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Contains(t, answer.Respuesta, "Lo siento")
}

func TestTokenRequiresPOST(t *testing.T) {
	h := newSpecialistServer(t, domain.DominioIdentidad).Handler()

	rec := do(t, h, http.MethodGet, "/token", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func newOrchestratorServer(t *testing.T, delegate router.Delegate) *Server {
	t.Helper()
	rt, err := router.New(router.Config{
		Tables:   responder.BuiltinTables(),
		Delegate: delegate,
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	srv, err := NewOrchestrator(OrchestratorConfig{
		ListenAddr:  ":0",
		ServiceName: "agente-orquestador",
		Router:      rt,
		Auth:        token.NewAuthority(0),
		Metrics:     telemetry.NewMetrics(),
		Logger:      testLogger(),
	})
	require.NoError(t, err)
	return srv
}

func localDelegate(t *testing.T) router.Delegate {
	t.Helper()
	responders := make(map[domain.Dominio]*responder.Responder, len(domain.Dominios))
	for _, d := range domain.Dominios {
		table, err := responder.BuiltinTable(d)
		require.NoError(t, err)
		rsp, err := responder.New(table, testLogger())
		require.NoError(t, err)
		responders[d] = rsp
	}
	delegate, err := router.NewLocalDelegate(responders)
	require.NoError(t, err)
	return delegate
}

func TestConsultRoutesToSpecialist(t *testing.T) {
	h := newOrchestratorServer(t, localDelegate(t)).Handler()
	tok := obtainToken(t, h)

	rec := do(t, h, http.MethodPost, "/consulta", tok, domain.QuestionRequest{Pregunta: "¿Puedes verificar mi DNI?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer domain.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Contains(t, answer.Respuesta, "Tu documento ha sido validado correctamente")
}

type unreachableDelegate struct{}

func (unreachableDelegate) Ask(context.Context, domain.Dominio, string) (string, error) {
	return "", fmt.Errorf("%w: connection refused", domain.ErrUpstreamUnreachable)
}

func TestConsultDeadSpecialistIs502(t *testing.T) {
	h := newOrchestratorServer(t, unreachableDelegate{}).Handler()
	tok := obtainToken(t, h)

	rec := do(t, h, http.MethodPost, "/consulta", tok, domain.QuestionRequest{Pregunta: "ver movimientos"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var errResp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", errResp.Code)
}
