// Package config provides configuration structures and loading logic for the
// agent services. Precedence is flags > environment > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mockbank/agente-ia/pkg/domain"
)

// Config holds the global configuration shared by the orchestrator and the
// specialist services.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Auth         AuthConfig         `yaml:"auth"`
	Rules        RulesConfig        `yaml:"rules"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig holds configuration for OpenTelemetry trace export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// AuthConfig holds configuration for the token authority.
type AuthConfig struct {
	// TokenTTL bounds token validity; zero means tokens never expire.
	TokenTTL Duration `yaml:"token_ttl"`
}

// RulesConfig holds configuration for specialist rule loading.
type RulesConfig struct {
	// Dominio selects the built-in rule table when File is empty.
	Dominio string `yaml:"dominio"`
	// File optionally overrides the built-in table with a YAML rule file.
	File string `yaml:"file"`
	// Watch enables hot reload of File on change.
	Watch bool `yaml:"watch"`
}

// OrchestratorConfig holds the specialist endpoints the orchestrator
// delegates to.
type OrchestratorConfig struct {
	Endpoints      map[string]string `yaml:"endpoints"`
	RequestTimeout Duration          `yaml:"request_timeout"`
}

// Load reads configuration from a file and applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Server:  ServerConfig{ListenAddress: ":8080"},
		Logging: LoggingConfig{Level: "info"},
		Orchestrator: OrchestratorConfig{
			RequestTimeout: Duration(5 * time.Second),
		},
	}

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("AGENTE_LISTEN_ADDR"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("AGENTE_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("AGENTE_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("AGENTE_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("AGENTE_TOKEN_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.Auth.TokenTTL = Duration(ttl)
		}
	}
	if val := os.Getenv("AGENTE_DOMINIO"); val != "" {
		cfg.Rules.Dominio = val
	}
	if val := os.Getenv("AGENTE_RULES_FILE"); val != "" {
		cfg.Rules.File = val
	}
	if val := os.Getenv("AGENTE_RULES_WATCH"); val == "true" {
		cfg.Rules.Watch = true
	}

	for _, d := range domain.Dominios {
		env := "AGENTE_ENDPOINT_" + strings.ToUpper(string(d))
		if val := os.Getenv(env); val != "" {
			if cfg.Orchestrator.Endpoints == nil {
				cfg.Orchestrator.Endpoints = make(map[string]string)
			}
			cfg.Orchestrator.Endpoints[string(d)] = val
		}
	}
}

// Validate checks the invariants shared by every service; role-specific
// requirements (a domain for specialists, endpoints for the orchestrator)
// are validated by the accessors below.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("%w: server.listen_address is required", domain.ErrConfigInvalid)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("%w: auth.token_ttl must not be negative", domain.ErrConfigInvalid)
	}
	if c.Orchestrator.RequestTimeout < 0 {
		return fmt.Errorf("%w: orchestrator.request_timeout must not be negative", domain.ErrConfigInvalid)
	}
	return nil
}

// Dominio resolves the specialist domain this process serves.
func (c *Config) Dominio() (domain.Dominio, error) {
	return domain.ParseDominio(c.Rules.Dominio)
}

// Endpoints resolves and validates the orchestrator's delegation endpoints.
func (c *Config) Endpoints() (map[domain.Dominio]string, error) {
	eps := make(map[domain.Dominio]string, len(c.Orchestrator.Endpoints))
	for name, base := range c.Orchestrator.Endpoints {
		d, err := domain.ParseDominio(name)
		if err != nil {
			return nil, err
		}
		eps[d] = base
	}
	for _, d := range domain.Dominios {
		if eps[d] == "" {
			return nil, fmt.Errorf("%w: orchestrator.endpoints.%s is required", domain.ErrConfigInvalid, d)
		}
	}
	return eps, nil
}
