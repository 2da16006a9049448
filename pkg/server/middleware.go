package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mockbank/agente-ia/pkg/telemetry"
	"github.com/mockbank/agente-ia/pkg/token"
)

// publicPaths are reachable without a bearer token: the token mint itself,
// liveness and scrape endpoints.
var publicPaths = map[string]struct{}{
	"/token":   {},
	"/healthz": {},
	"/metrics": {},
}

// bearerAuth rejects requests without a valid bearer token before any route
// matching happens, so unauthorized callers cannot probe the route table.
func bearerAuth(auth *token.Authority, metrics *telemetry.Metrics, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		tok, ok := bearerToken(r)
		if !ok || !auth.Validate(tok) {
			metrics.RecordAuthFailure()
			logger.Warn("request rejected",
				"path", r.URL.Path,
				"reason", "invalid or missing bearer token",
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="agente"`)
			writeError(w, http.StatusUnauthorized, "AUTHN_FAILED", "invalid or missing bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
