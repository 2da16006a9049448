package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbank/agente-ia/pkg/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.RequestTimeout.Std())
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenTTL.Std())
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "agente.yaml", `
server:
  listen_address: ":9101"
logging:
  level: debug
  pretty: true
auth:
  token_ttl: 30m
rules:
  dominio: cuentas
  watch: true
orchestrator:
  request_timeout: 2s
  endpoints:
    consultas: http://localhost:8001
    cuentas: http://localhost:8002
    identidad: http://localhost:8003
    ia: http://localhost:8004
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9101", cfg.Server.ListenAddress)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.RequestTimeout.Std())

	d, err := cfg.Dominio()
	require.NoError(t, err)
	assert.Equal(t, domain.DominioCuentas, d)

	eps, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8003", eps[domain.DominioIdentidad])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "broken.yaml", "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTE_LISTEN_ADDR", ":7070")
	t.Setenv("AGENTE_LOG_LEVEL", "warn")
	t.Setenv("AGENTE_TOKEN_TTL", "1h")
	t.Setenv("AGENTE_DOMINIO", "identidad")
	t.Setenv("AGENTE_RULES_WATCH", "true")
	t.Setenv("AGENTE_ENDPOINT_IA", "http://ia:8004")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.ListenAddress)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Std())
	assert.Equal(t, "identidad", cfg.Rules.Dominio)
	assert.True(t, cfg.Rules.Watch)
	assert.Equal(t, "http://ia:8004", cfg.Orchestrator.Endpoints["ia"])
}

func TestValidateRejectsNegativeTTL(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{ListenAddress: ":8080"},
		Auth:   AuthConfig{TokenTTL: Duration(-time.Second)},
	}
	err := cfg.Validate()
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestDominioRejectsUnknown(t *testing.T) {
	cfg := &Config{Rules: RulesConfig{Dominio: "prestamos"}}
	_, err := cfg.Dominio()
	assert.ErrorIs(t, err, domain.ErrUnknownDomain)
}

func TestEndpointsRequireAllDomains(t *testing.T) {
	cfg := &Config{
		Orchestrator: OrchestratorConfig{
			Endpoints: map[string]string{
				"consultas": "http://localhost:8001",
				"cuentas":   "http://localhost:8002",
				"identidad": "http://localhost:8003",
				// ia missing
			},
		},
	}
	_, err := cfg.Endpoints()
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}
