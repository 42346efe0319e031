package worker

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/groundcheck/internal/model"
)

// mockEvaluator grounds responses containing "grounded"
type mockEvaluator struct {
	delay time.Duration
	calls atomic.Int32
}

func (m *mockEvaluator) Evaluate(ctx context.Context, prompt string, response string) model.Evaluation {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	outcome := model.OutcomeNotGrounded
	if strings.Contains(response, "grounded") {
		outcome = model.OutcomeGrounded
	}
	return model.Evaluation{Prompt: prompt, Response: response, Outcome: outcome}
}

func TestBatchProcessor_ProcessCases_Order(t *testing.T) {
	evaluator := &mockEvaluator{delay: time.Millisecond}
	processor := NewBatchProcessor(evaluator, 4)

	var cases []model.Case
	for i := 0; i < 50; i++ {
		resp := "nope"
		if i%2 == 0 {
			resp = "grounded"
		}
		cases = append(cases, model.Case{ID: string(rune('A' + i%26)), Prompt: "p", Response: resp})
	}

	results := processor.ProcessCases(context.Background(), cases)

	if len(results) != len(cases) {
		t.Fatalf("expected %d results, got %d", len(cases), len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("expected index %d, got %d", i, r.Index)
		}
		if r.Error != nil {
			t.Errorf("unexpected error at %d: %v", i, r.Error)
		}
		if want := i%2 == 0; r.Evaluation.Grounded() != want {
			t.Errorf("case %d: expected grounded=%v", i, want)
		}
	}
	if evaluator.calls.Load() != 50 {
		t.Errorf("expected 50 evaluations, got %d", evaluator.calls.Load())
	}
}

func TestBatchProcessor_ProcessCases_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockEvaluator{}, 2)

	results := processor.ProcessCases(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessCases_Cancelled(t *testing.T) {
	evaluator := &mockEvaluator{}
	processor := NewBatchProcessor(evaluator, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []model.Case{{Prompt: "a"}, {Prompt: "b"}, {Prompt: "c"}}
	results := processor.ProcessCases(ctx, cases)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Error == nil {
			t.Errorf("expected cancellation error for case %d", i)
		}
		if r.Case.Prompt != cases[i].Prompt {
			t.Errorf("expected case %d to be preserved", i)
		}
	}
}

func TestVerifyResult_GetError(t *testing.T) {
	r1 := &VerifyResult{}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	r2 := &VerifyResult{Error: context.Canceled}
	if r2.GetError() != context.Canceled {
		t.Errorf("expected %v, got %v", context.Canceled, r2.GetError())
	}
}
