package worker

import (
	"context"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Evaluator verifies a single prompt/response pair
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string, response string) model.Evaluation
}

// VerifyJob evaluates one case
type VerifyJob struct {
	Index     int
	Case      model.Case
	Evaluator Evaluator
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &VerifyResult{Index: j.Index, Case: j.Case, Error: err}
	}
	return &VerifyResult{
		Index:      j.Index,
		Case:       j.Case,
		Evaluation: j.Evaluator.Evaluate(ctx, j.Case.Prompt, j.Case.Response),
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Index      int
	Case       model.Case
	Evaluation model.Evaluation
	Error      error // Set only when the job never ran (cancellation)
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates many cases concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessCases evaluates all cases and returns results in input order.
// Cases that could not run before ctx was cancelled carry ctx.Err().
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []model.Case) []*VerifyResult {
	if len(cases) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	// Submit from a separate goroutine so results can drain while queueing
	go func() {
		defer pool.Close()
		for i, c := range cases {
			job := &VerifyJob{Index: i, Case: c, Evaluator: b.evaluator}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	ordered := make([]*VerifyResult, len(cases))
	for result := range pool.Results() {
		r := result.(*VerifyResult)
		ordered[r.Index] = r
	}

	for i, r := range ordered {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		ordered[i] = &VerifyResult{Index: i, Case: cases[i], Error: err}
	}

	return ordered
}
