package match

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mockbank/agente-ia/pkg/domain"
)

const defaultFuzzyThreshold = 2

// preparedRule stores a rule with its keywords pre-normalized so request-time
// evaluation does no per-keyword normalization work.
type preparedRule struct {
	rule           domain.Rule
	normalized     []string // normalized keywords, aligned with rule.Keywords
	fuzzy          bool
	fuzzyThreshold int
}

// Engine evaluates a fixed, ordered rule set against normalized queries.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	rules []preparedRule
}

// Match describes how one rule scored against a query.
type Match struct {
	// Index is the rule's position in the table, the tie-break rank.
	Index int
	// Rule is the original rule definition.
	Rule domain.Rule
	// Keywords are the original-case keywords that matched.
	Keywords []string
	// Count is len(Keywords); Total is the rule's keyword count.
	Count int
	Total int
}

// Confidence converts a match into the 0..1 confidence used by the
// classification result: 0.5 base for any match plus up to 0.5 for keyword
// coverage.
func (m Match) Confidence() float64 {
	if m.Count == 0 || m.Total == 0 {
		return 0
	}
	return 0.5 + (float64(m.Count)/float64(m.Total))*0.5
}

// NewEngine prepares an engine for the given ordered rules. Rule order is
// significant: it is the documented tie-break priority.
func NewEngine(rules []domain.Rule) (*Engine, error) {
	e := &Engine{rules: make([]preparedRule, 0, len(rules))}
	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("%w: rule %d (%q) has no keywords", domain.ErrConfigInvalid, i, rule.Name)
		}
		pr := preparedRule{
			rule:           rule,
			normalized:     make([]string, len(rule.Keywords)),
			fuzzy:          rule.Fuzzy,
			fuzzyThreshold: rule.FuzzyThreshold,
		}
		if pr.fuzzy && pr.fuzzyThreshold == 0 {
			pr.fuzzyThreshold = defaultFuzzyThreshold
		}
		for j, kw := range rule.Keywords {
			normalized := Normalize(kw)
			if normalized == "" {
				return nil, fmt.Errorf("%w: rule %d (%q) keyword %q normalizes to nothing", domain.ErrConfigInvalid, i, rule.Name, kw)
			}
			pr.normalized[j] = normalized
		}
		e.rules = append(e.rules, pr)
	}
	return e, nil
}

// Evaluate scores every rule against the raw query and returns the rules with
// a non-zero match count, in table order.
func (e *Engine) Evaluate(query string) []Match {
	normalized := Normalize(query)

	var words []string
	for _, pr := range e.rules {
		if pr.fuzzy {
			words = Words(normalized)
			break
		}
	}

	var matches []Match
	for i, pr := range e.rules {
		m := e.score(i, pr, normalized, words)
		if m.Count > 0 {
			matches = append(matches, m)
		}
	}
	return matches
}

// Best returns the winning rule for the query: the highest match count, ties
// broken by earliest table position. ok is false when no rule matched at all,
// in which case the caller must use the table's fallback response.
func (e *Engine) Best(query string) (Match, bool) {
	var best Match
	found := false
	for _, m := range e.Evaluate(query) {
		// Strictly greater keeps the earliest rule on equal counts.
		if !found || m.Count > best.Count {
			best = m
			found = true
		}
	}
	return best, found
}

func (e *Engine) score(index int, pr preparedRule, normalized string, words []string) Match {
	m := Match{Index: index, Rule: pr.rule, Total: len(pr.normalized)}
	for j, kw := range pr.normalized {
		if strings.Contains(normalized, kw) {
			m.Keywords = append(m.Keywords, pr.rule.Keywords[j])
			continue
		}
		if pr.fuzzy && fuzzyMatch(kw, words, pr.fuzzyThreshold) {
			m.Keywords = append(m.Keywords, pr.rule.Keywords[j])
		}
	}
	m.Count = len(m.Keywords)
	return m
}

// fuzzyMatch reports whether any query word is within threshold edit distance
// of the normalized keyword. Multi-word keywords are compared word by word.
func fuzzyMatch(keyword string, words []string, threshold int) bool {
	for _, w := range words {
		if levenshtein.ComputeDistance(w, keyword) <= threshold {
			return true
		}
	}
	return false
}
