package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
	"github.com/mockbank/agente-ia/pkg/router"
	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, domain.ErrorResponse{Code: code, Message: message})
}

// handleToken mints a fresh bearer token. Issuance is anonymous: this mock
// has no user identities, the token only proves the caller did the handshake.
func handleToken(auth *token.Authority, metrics *telemetry.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		tok := auth.Issue()
		metrics.RecordTokenIssued()
		logger.Debug("token issued", "issued_total", auth.Count())
		writeJSON(w, http.StatusOK, domain.TokenResponse{
			AccessToken: tok,
			TokenType:   "bearer",
		})
	}
}

// handleHealth reports process liveness.
func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// decodeQuestion parses the question payload shared by /respuesta and
// /consulta. Only a malformed body or a missing "pregunta" field maps to
// 400; a present-but-blank question is a valid question that simply will
// not match any rule.
func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Pregunta *string `json:"pregunta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pregunta == nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "request body must be JSON with a \"pregunta\" field")
		return "", false
	}
	return *req.Pregunta, true
}

// handleAnswer resolves a question against the specialist's rule table. It
// always answers 200: an unmatched question gets the table's fallback.
func handleAnswer(rsp *responder.Responder, metrics *telemetry.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pregunta, ok := decodeQuestion(w, r)
		if !ok {
			return
		}

		start := time.Now()
		result := rsp.Answer(pregunta)
		metrics.RecordQuestion(string(rsp.Domain()), result.Fallback, time.Since(start))

		logger.Info("question answered",
			"dominio", string(rsp.Domain()),
			"regla", result.Rule,
			"fallback", result.Fallback,
			"confianza", result.Confidence,
		)

		writeJSON(w, http.StatusOK, domain.AnswerResponse{Respuesta: result.Respuesta})
	}
}

// handleConsult classifies the question and delegates it to the matching
// specialist. A dead or misbehaving specialist surfaces as 502; the
// orchestrator never invents an answer of its own.
func handleConsult(rt *router.Router, metrics *telemetry.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pregunta, ok := decodeQuestion(w, r)
		if !ok {
			return
		}

		answer, c, err := rt.Route(r.Context(), pregunta)
		if err != nil {
			metrics.RecordDelegation(string(c.Domain), "error")
			logger.Error("delegation failed",
				"dominio", string(c.Domain),
				"error", err,
			)
			if errors.Is(err, domain.ErrUpstreamUnreachable) {
				writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "specialist service is unavailable")
				return
			}
			writeError(w, http.StatusBadGateway, "DELEGATION_FAILED", "could not obtain an answer from the specialist")
			return
		}

		metrics.RecordDelegation(string(c.Domain), "success")
		writeJSON(w, http.StatusOK, domain.AnswerResponse{Respuesta: answer})
	}
}
