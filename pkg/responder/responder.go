// Package responder implements the generic specialist responder: one keyword
// matching engine parameterized by an immutable rule table, instantiated once
// per domain. Domain content is configuration, not logic.
package responder

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/match"
)

// tableState pairs a rule table with its prepared engine. States are
// immutable; hot reload swaps the whole pointer.
type tableState struct {
	table  domain.RuleTable
	engine *match.Engine
}

// Responder answers free-text questions for one specialist domain. It is safe
// for concurrent use; Answer never fails to produce a response because the
// table's fallback covers unmatched queries.
type Responder struct {
	state  atomic.Pointer[tableState]
	logger *slog.Logger
}

// Result describes one answered question.
type Result struct {
	Respuesta  string
	Rule       string  // winning rule name, empty on fallback
	MatchCount int     // keywords of the winning rule that matched
	Confidence float64 // 0 on fallback
	Fallback   bool
}

// New builds a Responder for the given table. The table is validated and
// deep-copied; later mutations of the caller's value have no effect.
func New(table domain.RuleTable, logger *slog.Logger) (*Responder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Responder{logger: logger}
	if err := r.Swap(table); err != nil {
		return nil, err
	}
	return r, nil
}

// Swap atomically replaces the rule table with a freshly validated one.
// In-flight requests keep using the table they started with.
func (r *Responder) Swap(table domain.RuleTable) error {
	if err := table.Validate(); err != nil {
		return err
	}
	clone := table.Clone()
	engine, err := match.NewEngine(clone.Rules)
	if err != nil {
		return fmt.Errorf("prepare rule table %q: %w", clone.Domain, err)
	}
	r.state.Store(&tableState{table: clone, engine: engine})
	return nil
}

// Domain returns the specialist domain this responder serves.
func (r *Responder) Domain() domain.Dominio {
	return r.state.Load().table.Domain
}

// Table returns a copy of the current rule table.
func (r *Responder) Table() domain.RuleTable {
	return r.state.Load().table.Clone()
}

// Answer resolves a question against the rule table. An unmatched question is
// not an error: it yields the table's fallback response.
func (r *Responder) Answer(pregunta string) Result {
	st := r.state.Load()

	best, ok := st.engine.Best(pregunta)
	if !ok {
		r.logger.Debug("question fell through to fallback",
			"dominio", string(st.table.Domain),
		)
		return Result{Respuesta: st.table.Fallback, Fallback: true}
	}

	r.logger.Debug("rule matched",
		"dominio", string(st.table.Domain),
		"regla", best.Rule.Name,
		"keywords", best.Keywords,
		"matched", best.Count,
		"total", best.Total,
	)
	return Result{
		Respuesta:  best.Rule.Response,
		Rule:       best.Rule.Name,
		MatchCount: best.Count,
		Confidence: best.Confidence(),
	}
}
