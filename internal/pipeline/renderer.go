package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/groundcheck/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes reports to files and terminals
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Verdict is the human-facing form of an automatic label
func Verdict(l model.Label) string {
	if l == model.LabelCorrect {
		return "✅ Likely Correct"
	}
	return "⚠️ Likely Hallucinated"
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0644)
}

// RenderCSV writes one row per case
func (r *Renderer) RenderCSV(report *model.Report, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return r.WriteCSV(f, report)
}

// WriteCSV writes the CSV form of the report to w
func (r *Renderer) WriteCSV(w io.Writer, report *model.Report) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "prompt", "response", "auto_verdict", "final_label", "outcome", "article", "common_words"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, res := range report.Results {
		article := ""
		if res.Evaluation.Article != nil {
			article = res.Evaluation.Article.Title
		}
		row := []string{
			res.Case.ID,
			res.Case.Prompt,
			res.Case.Response,
			string(res.AutoLabel),
			string(res.FinalLabel),
			string(res.Evaluation.Outcome),
			article,
			strings.Join(res.Evaluation.CommonWords, " "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Hallucination Report\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- **Generated:** %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Knowledge source:** %s\n\n", report.Source)

	s := report.Summary
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Total | Hallucinated | Rate | Overridden | Unresolvable |\n")
	fmt.Fprintf(&b, "|------:|-------------:|-----:|-----------:|-------------:|\n")
	fmt.Fprintf(&b, "| %d | %d | %.2f%% | %d | %d |\n\n", s.Total, s.Hallucinated, s.Rate, s.Overridden, s.Unresolvable)

	fmt.Fprintf(&b, "## Cases\n\n")
	for i, res := range report.Results {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, mdEscape(res.Case.Prompt))
		fmt.Fprintf(&b, "**Response:** %s\n\n", mdEscape(res.Case.Response))
		fmt.Fprintf(&b, "- Auto-verification: %s\n", Verdict(res.AutoLabel))
		if res.Overridden {
			fmt.Fprintf(&b, "- Final label: **%s** (human override)\n", res.FinalLabel)
		} else {
			fmt.Fprintf(&b, "- Final label: %s\n", res.FinalLabel)
		}
		fmt.Fprintf(&b, "- Outcome: `%s`\n", res.Evaluation.Outcome)
		if a := res.Evaluation.Article; a != nil {
			if a.URL != "" {
				fmt.Fprintf(&b, "- Article: [%s](%s) via `%s`\n", a.Title, a.URL, res.Evaluation.Tier)
			} else {
				fmt.Fprintf(&b, "- Article: %s via `%s`\n", a.Title, res.Evaluation.Tier)
			}
			fmt.Fprintf(&b, "- Common words (%d, threshold %d): %s\n",
				len(res.Evaluation.CommonWords), res.Evaluation.Threshold,
				strings.Join(res.Evaluation.CommonWords, ", "))
		}
		if res.Error != "" {
			fmt.Fprintf(&b, "- Error: %s\n", res.Error)
		}
		fmt.Fprintf(&b, "\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n")
		fmt.Fprintf(&b, "_Verdicts are a lexical-overlap heuristic against encyclopedia summaries. ")
		fmt.Fprintf(&b, "They signal relatedness, not truth. Final labels may be overridden by a human reviewer._\n")
	}

	return b.String()
}

// RenderSummary prints the run summary banner to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Summary

	_, _ = fmt.Fprintf(w, "\n%s\n", banner)
	_, _ = fmt.Fprintf(w, "  Hallucination Report\n")
	_, _ = fmt.Fprintf(w, "%s\n\n", banner)

	for i, res := range report.Results {
		marker := "✓"
		if res.FinalLabel == model.LabelHallucinated {
			marker = "✗"
		}
		suffix := ""
		if res.Overridden {
			suffix = " (override)"
		}
		_, _ = fmt.Fprintf(w, "  %s %2d. %s: %s%s\n", marker, i+1, truncate(res.Case.Prompt, 60), res.FinalLabel, suffix)
	}

	_, _ = fmt.Fprintf(w, "\n  Source:        %s\n", report.Source)
	_, _ = fmt.Fprintf(w, "  Total:         %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Hallucinated:  %d\n", s.Hallucinated)
	_, _ = fmt.Fprintf(w, "  Overridden:    %d\n", s.Overridden)
	_, _ = fmt.Fprintf(w, "  Unresolvable:  %d\n", s.Unresolvable)
	_, _ = fmt.Fprintf(w, "  Rate:          %.2f%%\n\n", s.Rate)
}

// Render writes the requested report files (empty paths are skipped)
// and prints the summary to w.
func (r *Renderer) Render(report *model.Report, jsonPath, mdPath, csvPath string, verbose bool, w io.Writer) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(w, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(w, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if csvPath != "" {
		if err := r.RenderCSV(report, csvPath); err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(w, "✓ Wrote CSV: %s\n", csvPath)
		}
	}

	r.RenderSummary(w, report)
	return nil
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
