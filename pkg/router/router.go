package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockbank/agente-ia/pkg/domain"
)

// Router is the orchestrator's decision core: classify, delegate, pass the
// answer through unchanged. Requests are stateless end to end.
type Router struct {
	classifier *Classifier
	delegate   Delegate
	logger     *slog.Logger
}

// Config wires a Router.
type Config struct {
	// Tables holds one rule table per domain for classification.
	Tables []domain.RuleTable
	// Delegate forwards the question to the chosen specialist.
	Delegate Delegate
	Logger   *slog.Logger
}

// New builds a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Delegate == nil {
		return nil, fmt.Errorf("%w: router requires a delegate", domain.ErrConfigInvalid)
	}
	classifier, err := NewClassifier(cfg.Tables)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{classifier: classifier, delegate: cfg.Delegate, logger: logger}, nil
}

// Route classifies the question, delegates it and returns the specialist's
// answer verbatim together with the classification that was made. An
// unroutable question goes to the general-AI specialist, whose own fallback
// produces the final answer; Route never synthesizes its own "I don't
// understand" response.
func (r *Router) Route(ctx context.Context, pregunta string) (string, domain.Classification, error) {
	c := r.classifier.Classify(pregunta)

	r.logger.Info("question classified",
		"dominio", string(c.Domain),
		"regla", c.Rule,
		"confianza", c.Confidence,
		"matched", c.Matched,
	)

	answer, err := r.delegate.Ask(ctx, c.Domain, pregunta)
	if err != nil {
		return "", c, fmt.Errorf("delegate to %s: %w", c.Domain, err)
	}
	return answer, c, nil
}
