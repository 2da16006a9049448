package domain

import "fmt"

// Rule is a single (keyword-set, response) pair inside a RuleTable. Its
// position in the table is its tie-break rank: when two rules match the same
// number of keywords, the earlier-registered rule wins.
type Rule struct {
	// Name identifies the rule in logs and metrics.
	Name string `json:"nombre" yaml:"nombre"`
	// Keywords are the trigger keywords or phrases. Matching is
	// case-/diacritic-insensitive and substring based.
	Keywords []string `json:"keywords" yaml:"keywords"`
	// RouterKeywords are extra synonyms only the orchestrator's
	// classifier considers when picking a domain. They widen routing
	// without changing which rule the specialist itself matches.
	RouterKeywords []string `json:"router_keywords,omitempty" yaml:"router_keywords,omitempty"`
	// Response is the literal answer returned when this rule wins.
	Response string `json:"respuesta" yaml:"respuesta"`
	// Fuzzy enables approximate keyword matching by edit distance.
	Fuzzy bool `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
	// FuzzyThreshold is the maximum edit distance for fuzzy matching.
	// Zero selects the default (2).
	FuzzyThreshold int `json:"fuzzy_threshold,omitempty" yaml:"fuzzy_threshold,omitempty"`
}

// RuleTable is the ordered rule set of one specialist domain plus its
// designated fallback response. Tables are immutable after construction;
// hot reload builds a fresh table and swaps it whole.
type RuleTable struct {
	Domain   Dominio `json:"dominio" yaml:"dominio"`
	Rules    []Rule  `json:"reglas" yaml:"reglas"`
	Fallback string  `json:"fallback" yaml:"fallback"`
}

// Validate checks the structural invariants of the table: a known domain, a
// non-empty fallback, and at least one keyword with a response per rule.
func (t RuleTable) Validate() error {
	if !t.Domain.Valid() {
		return fmt.Errorf("%w: rule table domain %q", ErrUnknownDomain, t.Domain)
	}
	if t.Fallback == "" {
		return fmt.Errorf("%w: rule table %q has no fallback response", ErrConfigInvalid, t.Domain)
	}
	for i, r := range t.Rules {
		if len(r.Keywords) == 0 {
			return fmt.Errorf("%w: rule %d (%q) in table %q has no keywords", ErrConfigInvalid, i, r.Name, t.Domain)
		}
		for _, kw := range r.Keywords {
			if kw == "" {
				return fmt.Errorf("%w: rule %d (%q) in table %q has an empty keyword", ErrConfigInvalid, i, r.Name, t.Domain)
			}
		}
		for _, kw := range r.RouterKeywords {
			if kw == "" {
				return fmt.Errorf("%w: rule %d (%q) in table %q has an empty router keyword", ErrConfigInvalid, i, r.Name, t.Domain)
			}
		}
		if r.Response == "" {
			return fmt.Errorf("%w: rule %d (%q) in table %q has no response", ErrConfigInvalid, i, r.Name, t.Domain)
		}
		if r.FuzzyThreshold < 0 {
			return fmt.Errorf("%w: rule %d (%q) in table %q has negative fuzzy threshold", ErrConfigInvalid, i, r.Name, t.Domain)
		}
	}
	return nil
}

// Clone returns a deep copy of the table to avoid shared mutable state.
func (t RuleTable) Clone() RuleTable {
	clone := RuleTable{
		Domain:   t.Domain,
		Fallback: t.Fallback,
		Rules:    make([]Rule, len(t.Rules)),
	}
	for i, r := range t.Rules {
		clone.Rules[i] = Rule{
			Name:           r.Name,
			Keywords:       append([]string(nil), r.Keywords...),
			Response:       r.Response,
			Fuzzy:          r.Fuzzy,
			FuzzyThreshold: r.FuzzyThreshold,
		}
		if len(r.RouterKeywords) > 0 {
			clone.Rules[i].RouterKeywords = append([]string(nil), r.RouterKeywords...)
		}
	}
	return clone
}

// Classification is the orchestrator's routing decision for one query.
type Classification struct {
	// Domain is the specialist the query was assigned to.
	Domain Dominio
	// Rule is the name of the best-matching rule, empty on fallback.
	Rule string
	// MatchCount is how many of the winning rule's keywords matched.
	MatchCount int
	// Confidence is 0 on fallback, otherwise 0.5 + matchRatio*0.5.
	Confidence float64
	// Matched is false when no rule in any table matched and the query
	// fell through to the general-AI domain.
	Matched bool
}
