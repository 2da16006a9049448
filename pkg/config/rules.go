package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mockbank/agente-ia/pkg/domain"
)

// LoadRuleTable reads a YAML rule file into a validated RuleTable. The file
// schema mirrors the domain types:
//
//	dominio: cuentas
//	fallback: "No he encontrado información sobre eso."
//	reglas:
//	  - nombre: tipos
//	    keywords: ["tipo de cuenta", "tipos de cuenta"]
//	    respuesta: "Ofrecemos cuentas corrientes..."
//	    fuzzy: false
func LoadRuleTable(path string) (domain.RuleTable, error) {
	//nolint:gosec // Rule file path is controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleTable{}, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}
	return ParseRuleTable(data)
}

// ParseRuleTable decodes and validates rule-table YAML.
func ParseRuleTable(data []byte) (domain.RuleTable, error) {
	var table domain.RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return domain.RuleTable{}, fmt.Errorf("failed to parse rule table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return domain.RuleTable{}, err
	}
	return table, nil
}
