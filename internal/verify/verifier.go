// Package verify decides whether a response is grounded in a reference article.
package verify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/extract"
	"github.com/ppiankov/groundcheck/internal/knowledge"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/score"
)

// Option configures a Verifier
type Option func(*Verifier)

// WithStrategy replaces the subject extraction strategy
func WithStrategy(s extract.Strategy) Option {
	return func(v *Verifier) {
		if s != nil {
			v.strategy = s
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithMinCommonWords sets the overlap threshold
func WithMinCommonWords(n int) Option {
	return func(v *Verifier) {
		v.scorer = score.NewScorerWithThreshold(n)
	}
}

// Verifier runs extraction, resolution and scoring for one prompt/response pair.
// It holds no per-call state and is safe for concurrent use when its source is.
type Verifier struct {
	source   knowledge.Source
	strategy extract.Strategy
	scorer   *score.Scorer
	logger   *zap.Logger
	resolver *Resolver
}

// New creates a verifier backed by source
func New(source knowledge.Source, opts ...Option) *Verifier {
	v := &Verifier{
		source:   source,
		strategy: extract.NewRegexStrategy(),
		scorer:   score.NewScorer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("verify")
	v.resolver = NewResolver(source, v.logger)
	return v
}

// Verify reports whether response is likely grounded. It never fails:
// lookup errors and unresolvable prompts yield false.
func (v *Verifier) Verify(ctx context.Context, prompt, response string) bool {
	return v.Evaluate(ctx, prompt, response).Grounded()
}

// Evaluate returns the full breakdown behind Verify
func (v *Verifier) Evaluate(ctx context.Context, prompt, response string) (eval model.Evaluation) {
	eval = model.Evaluation{
		Prompt:    prompt,
		Response:  response,
		Threshold: v.scorer.Threshold(),
		Outcome:   model.OutcomeUnresolvable,
	}

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("verification panicked",
				zap.String("prompt", prompt),
				zap.String("panic", fmt.Sprint(r)))
			eval.Outcome = model.OutcomeUnresolvable
			eval.Article = nil
			eval.CommonWords = nil
		}
	}()

	eval.Candidates = v.strategy.Candidates(prompt)
	if len(eval.Candidates) == 0 {
		v.logger.Debug("no candidate subjects", zap.String("prompt", prompt))
		return eval
	}

	res := v.resolver.Resolve(ctx, eval.Candidates, prompt, response)
	eval.Lookups = res.Lookups
	if res.Article == nil {
		v.logger.Debug("no article resolved",
			zap.String("prompt", prompt),
			zap.Int("lookups", res.Lookups))
		return eval
	}

	eval.Article = res.Article
	eval.Tier = res.Tier

	overlap := v.scorer.Score(*res.Article, response)
	eval.CommonWords = overlap.CommonWords
	if overlap.Grounded {
		eval.Outcome = model.OutcomeGrounded
	} else {
		eval.Outcome = model.OutcomeNotGrounded
	}

	v.logger.Debug("verified",
		zap.String("article", res.Article.Title),
		zap.String("tier", string(res.Tier)),
		zap.Int("common_words", len(overlap.CommonWords)),
		zap.String("outcome", string(eval.Outcome)))

	return eval
}

// Source returns the knowledge source in use
func (v *Verifier) Source() knowledge.Source {
	return v.source
}
