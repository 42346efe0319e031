package model

import "time"

// Case is one prompt/response pair to evaluate
type Case struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Prompt   string `json:"prompt" yaml:"prompt" binding:"required"`
	Response string `json:"response" yaml:"response"`
	Label    Label  `json:"label,omitempty" yaml:"label,omitempty"` // Optional human override
}

// CaseResult pairs a case with its automatic and final judgments
type CaseResult struct {
	Case       Case       `json:"case"`
	Evaluation Evaluation `json:"evaluation"`
	AutoLabel  Label      `json:"auto_label"`
	FinalLabel Label      `json:"final_label"`
	Overridden bool       `json:"overridden"` // Human label differs from the auto verdict
	Error      string     `json:"error,omitempty"`
}

// Report is the output of an evaluation run
type Report struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Source      string       `json:"source"` // Knowledge source description (e.g. "wikipedia:en")
	Results     []CaseResult `json:"results"`
	Summary     Summary      `json:"summary"`
	Principles  Principles   `json:"principles"`
}

// Summary holds the aggregate hallucination figures
type Summary struct {
	Total        int     `json:"total"`
	Hallucinated int     `json:"hallucinated"`
	Overridden   int     `json:"overridden"`
	Unresolvable int     `json:"unresolvable"`
	Rate         float64 `json:"rate"` // Percentage of hallucinated final labels (0-100)
}

// Principles documents how verdicts should be read
type Principles struct {
	Heuristic     bool `json:"heuristic"`      // Lexical overlap, not entailment
	HumanOverride bool `json:"human_override"` // Final labels may override auto verdicts
}

// DefaultPrinciples returns the standard principles
func DefaultPrinciples() Principles {
	return Principles{
		Heuristic:     true,
		HumanOverride: true,
	}
}

// Summarize computes the aggregate figures from final labels
func Summarize(results []CaseResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.FinalLabel == LabelHallucinated {
			s.Hallucinated++
		}
		if r.Overridden {
			s.Overridden++
		}
		if r.Evaluation.Outcome == OutcomeUnresolvable {
			s.Unresolvable++
		}
	}
	if s.Total > 0 {
		s.Rate = float64(s.Hallucinated) / float64(s.Total) * 100
	}
	return s
}
