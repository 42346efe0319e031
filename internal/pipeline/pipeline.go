// Package pipeline runs batches of cases through the verifier and renders reports.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/groundcheck/internal/metrics"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/verify"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// Pipeline evaluates cases and assembles reports
type Pipeline struct {
	verifier  *verify.Verifier
	processor *worker.BatchProcessor
	metrics   *metrics.Metrics // Optional
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline around v. m may be nil.
func NewPipeline(cfg *model.Config, v *verify.Verifier, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		verifier:  v,
		processor: worker.NewBatchProcessor(v, cfg.Concurrency.Workers),
		metrics:   m,
		logger:    logger.Named("pipeline"),
		now:       time.Now,
	}
}

// Run verifies every case, applies human override labels and computes the
// hallucination rate. Results keep input order.
func (p *Pipeline) Run(ctx context.Context, cases []model.Case) (*model.Report, error) {
	if len(cases) == 0 {
		return nil, ErrNoCases
	}

	runID := uuid.NewString()
	start := p.now()
	p.logger.Info("run started", zap.String("run_id", runID), zap.Int("cases", len(cases)))

	verified := p.processor.ProcessCases(ctx, cases)

	results := make([]model.CaseResult, len(verified))
	for i, v := range verified {
		results[i] = buildResult(v)
		if v.Error != nil {
			p.logger.Warn("case not evaluated",
				zap.String("id", v.Case.ID),
				zap.Error(v.Error))
			continue
		}
		if p.metrics != nil {
			p.metrics.ObserveEvaluation(v.Evaluation)
		}
	}

	report := &model.Report{
		RunID:       runID,
		GeneratedAt: p.now().UTC(),
		Source:      p.verifier.Source().Name(),
		Results:     results,
		Summary:     model.Summarize(results),
		Principles:  model.DefaultPrinciples(),
	}

	if p.metrics != nil {
		p.metrics.ObserveReport(report)
	}

	p.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("hallucinated", report.Summary.Hallucinated),
		zap.Float64("rate", report.Summary.Rate),
		zap.Duration("took", p.now().Sub(start)))

	return report, nil
}

// buildResult derives the auto and final labels for one verified case.
// A case that never ran counts as hallucinated unless a human labelled it.
func buildResult(v *worker.VerifyResult) model.CaseResult {
	r := model.CaseResult{
		Case:       v.Case,
		Evaluation: v.Evaluation,
	}

	if v.Error != nil {
		r.Error = v.Error.Error()
		r.Evaluation = model.Evaluation{
			Prompt:   v.Case.Prompt,
			Response: v.Case.Response,
			Outcome:  model.OutcomeUnresolvable,
		}
	}

	r.AutoLabel = model.LabelFor(r.Evaluation.Grounded())
	r.FinalLabel = r.AutoLabel
	if v.Case.Label != "" {
		r.FinalLabel = v.Case.Label
		r.Overridden = v.Case.Label != r.AutoLabel
	}
	return r
}
