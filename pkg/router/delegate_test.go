package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
)

// fakeSpecialist emulates the specialist HTTP contract: /token mints tokens,
// /respuesta requires one.
type fakeSpecialist struct {
	t       *testing.T
	answer  string
	tokens  atomic.Int64
	current atomic.Value // string
}

func (f *fakeSpecialist) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		f.tokens.Add(1)
		tok := "tok-" + string(rune('a'+f.tokens.Load()))
		f.current.Store(tok)
		_ = json.NewEncoder(w).Encode(domain.TokenResponse{AccessToken: tok, TokenType: "bearer"})
	})
	mux.HandleFunc("POST /respuesta", func(w http.ResponseWriter, r *http.Request) {
		want, _ := f.current.Load().(string)
		if want == "" || r.Header.Get("Authorization") != "Bearer "+want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var q domain.QuestionRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&q))
		_ = json.NewEncoder(w).Encode(domain.AnswerResponse{Respuesta: f.answer})
	})
	return mux
}

func endpointsForAll(url string) map[domain.Dominio]string {
	eps := make(map[domain.Dominio]string, len(domain.Dominios))
	for _, d := range domain.Dominios {
		eps[d] = url
	}
	return eps
}

func TestHTTPDelegate_AskObtainsTokenAndDelegates(t *testing.T) {
	spec := &fakeSpecialist{t: t, answer: "Tu saldo actual es de 1.275,45€."}
	srv := httptest.NewServer(spec.handler())
	defer srv.Close()

	d, err := NewHTTPDelegate(HTTPDelegateConfig{Endpoints: endpointsForAll(srv.URL)})
	require.NoError(t, err)

	got, err := d.Ask(context.Background(), domain.DominioConsultas, "saldo")
	require.NoError(t, err)
	assert.Equal(t, "Tu saldo actual es de 1.275,45€.", got)
	assert.EqualValues(t, 1, spec.tokens.Load())

	// Token is cached across calls.
	_, err = d.Ask(context.Background(), domain.DominioConsultas, "saldo")
	require.NoError(t, err)
	assert.EqualValues(t, 1, spec.tokens.Load())
}

func TestHTTPDelegate_RefreshesTokenOn401(t *testing.T) {
	spec := &fakeSpecialist{t: t, answer: "ok"}
	srv := httptest.NewServer(spec.handler())
	defer srv.Close()

	d, err := NewHTTPDelegate(HTTPDelegateConfig{Endpoints: endpointsForAll(srv.URL)})
	require.NoError(t, err)

	_, err = d.Ask(context.Background(), domain.DominioIA, "hola")
	require.NoError(t, err)

	// Specialist "restarts": the cached token is no longer valid.
	spec.current.Store("otro")

	got, err := d.Ask(context.Background(), domain.DominioIA, "hola")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.EqualValues(t, 2, spec.tokens.Load())
}

func TestHTTPDelegate_UpstreamDownIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // immediately dead

	d, err := NewHTTPDelegate(HTTPDelegateConfig{Endpoints: endpointsForAll(srv.URL)})
	require.NoError(t, err)

	_, err = d.Ask(context.Background(), domain.DominioCuentas, "abrir cuenta")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
}

func TestHTTPDelegate_Upstream5xxIsUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.TokenResponse{AccessToken: "tok", TokenType: "bearer"})
	})
	mux.HandleFunc("POST /respuesta", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d, err := NewHTTPDelegate(HTTPDelegateConfig{Endpoints: endpointsForAll(srv.URL)})
	require.NoError(t, err)

	_, err = d.Ask(context.Background(), domain.DominioIdentidad, "dni")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
}

func TestNewHTTPDelegate_RequiresAllEndpoints(t *testing.T) {
	_, err := NewHTTPDelegate(HTTPDelegateConfig{Endpoints: map[domain.Dominio]string{
		domain.DominioIA: "http://localhost:1",
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func localDelegate(t *testing.T) *LocalDelegate {
	t.Helper()
	responders := make(map[domain.Dominio]*responder.Responder)
	for _, table := range responder.BuiltinTables() {
		r, err := responder.New(table, nil)
		require.NoError(t, err)
		responders[table.Domain] = r
	}
	d, err := NewLocalDelegate(responders)
	require.NoError(t, err)
	return d
}

func TestLocalDelegate_Ask(t *testing.T) {
	d := localDelegate(t)

	got, err := d.Ask(context.Background(), domain.DominioIdentidad, "¿Puedes verificar mi DNI?")
	require.NoError(t, err)
	assert.Contains(t, got, "Tu documento ha sido validado correctamente")
}

func TestRouter_RouteEndToEnd(t *testing.T) {
	r, err := New(Config{
		Tables:   responder.BuiltinTables(),
		Delegate: localDelegate(t),
	})
	require.NoError(t, err)

	answer, c, err := r.Route(context.Background(), "Por favor verifica mi DNI")
	require.NoError(t, err)
	assert.Equal(t, domain.DominioIdentidad, c.Domain)
	assert.Contains(t, answer, "documento ha sido validado")

	answer, c, err = r.Route(context.Background(), "¿Cuál es el color del cielo?")
	require.NoError(t, err)
	assert.Equal(t, domain.DominioIA, c.Domain)
	assert.False(t, c.Matched)
	assert.Contains(t, answer, "Lo siento")
}
