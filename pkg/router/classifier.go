// Package router implements the orchestrator: it classifies a free-text
// question to the most likely specialist domain using the same keyword
// matching primitive the specialists use, then delegates the question and
// returns the specialist's answer verbatim.
package router

import (
	"fmt"
	"sort"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/match"
)

// entry holds one domain's prepared engine, in routing priority order.
type entry struct {
	dominio domain.Dominio
	engine  *match.Engine
}

// Classifier scores a question against every domain's rule table and picks
// the domain whose best rule scores highest. Ties are broken by the fixed
// priority identidad > cuentas > consultas > ia, so identity and account
// questions are never miscaptured by the general-AI catch-all.
type Classifier struct {
	entries []entry
}

// NewClassifier builds a classifier from one rule table per domain. Every
// domain must appear exactly once.
func NewClassifier(tables []domain.RuleTable) (*Classifier, error) {
	seen := make(map[domain.Dominio]bool, len(tables))
	entries := make([]entry, 0, len(tables))
	for _, table := range tables {
		if err := table.Validate(); err != nil {
			return nil, err
		}
		if seen[table.Domain] {
			return nil, fmt.Errorf("%w: duplicate rule table for %q", domain.ErrConfigInvalid, table.Domain)
		}
		seen[table.Domain] = true

		engine, err := match.NewEngine(routingRules(table))
		if err != nil {
			return nil, fmt.Errorf("prepare classifier table %q: %w", table.Domain, err)
		}
		entries = append(entries, entry{dominio: table.Domain, engine: engine})
	}
	for _, d := range domain.Dominios {
		if !seen[d] {
			return nil, fmt.Errorf("%w: missing rule table for %q", domain.ErrConfigInvalid, d)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].dominio.Priority() < entries[j].dominio.Priority()
	})

	return &Classifier{entries: entries}, nil
}

// routingRules widens each rule's keyword set with its router-only synonyms.
// The specialists never see these synonyms; they exist so the classifier can
// capture phrasings the specialist itself answers with its fallback.
func routingRules(table domain.RuleTable) []domain.Rule {
	rules := make([]domain.Rule, len(table.Rules))
	for i, r := range table.Rules {
		rules[i] = r
		if len(r.RouterKeywords) == 0 {
			continue
		}
		merged := make([]string, 0, len(r.Keywords)+len(r.RouterKeywords))
		merged = append(merged, r.Keywords...)
		merged = append(merged, r.RouterKeywords...)
		rules[i].Keywords = merged
	}
	return rules
}

// Classify assigns the question to exactly one domain. A question no domain
// matches is assigned to the general-AI domain with Matched=false; the
// orchestrator never refuses to route.
func (c *Classifier) Classify(pregunta string) domain.Classification {
	var best domain.Classification
	for _, e := range c.entries {
		m, ok := e.engine.Best(pregunta)
		if !ok {
			continue
		}
		// Strictly greater keeps the higher-priority domain on ties.
		if !best.Matched || m.Count > best.MatchCount {
			best = domain.Classification{
				Domain:     e.dominio,
				Rule:       m.Rule.Name,
				MatchCount: m.Count,
				Confidence: m.Confidence(),
				Matched:    true,
			}
		}
	}
	if !best.Matched {
		return domain.Classification{Domain: domain.DominioIA}
	}
	return best
}
