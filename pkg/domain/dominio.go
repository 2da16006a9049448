package domain

import (
	"fmt"
	"strings"
)

// Dominio identifies one of the specialist responder domains.
type Dominio string

// The four specialist domains. Names match the wire-level service names used
// by the orchestrator configuration and the rule files.
const (
	DominioConsultas Dominio = "consultas"
	DominioCuentas   Dominio = "cuentas"
	DominioIdentidad Dominio = "identidad"
	DominioIA        Dominio = "ia"
)

// Dominios lists every specialist domain in routing-priority order:
// identity and account-state questions must never be miscaptured by the
// general-AI fallback domain, so identidad and cuentas outrank the rest.
// The orchestrator breaks classification ties by this order, and DominioIA
// (last) is the catch-all when nothing matches.
var Dominios = []Dominio{
	DominioIdentidad,
	DominioCuentas,
	DominioConsultas,
	DominioIA,
}

// ParseDominio converts a string into a Dominio, case-insensitively.
func ParseDominio(s string) (Dominio, error) {
	d := Dominio(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// Valid reports whether d is one of the known specialist domains.
func (d Dominio) Valid() bool {
	switch d {
	case DominioConsultas, DominioCuentas, DominioIdentidad, DominioIA:
		return true
	default:
		return false
	}
}

// Priority returns the routing tie-break rank of the domain; lower wins.
func (d Dominio) Priority() int {
	for i, known := range Dominios {
		if known == d {
			return i
		}
	}
	return len(Dominios)
}
