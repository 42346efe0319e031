package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/pipeline"
)

var (
	verifyJSON     bool
	verifyDeadline time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <prompt> <response>",
	Short: "Check a single response against Wikipedia",
	Long: `Verify extracts the subject of the prompt, resolves it to a Wikipedia
article and compares the article summary with the response.

Pass "-" as the response to read it from stdin.

Example:
  groundcheck verify "Who discovered penicillin?" "Alexander Fleming discovered penicillin in 1928."
  echo "The yen." | groundcheck verify "What is the currency of Japan?" -
  groundcheck verify "Who wrote Hamlet?" "Shakespeare" --json`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the full evaluation as JSON")
	verifyCmd.Flags().DurationVar(&verifyDeadline, "deadline", 2*time.Minute, "overall time limit for the check")
}

func runVerify(cmd *cobra.Command, args []string) error {
	prompt, response := args[0], args[1]
	if response == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		response = strings.TrimSpace(string(data))
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyDeadline)
	defer cancel()

	eval := a.verifier.Evaluate(ctx, prompt, response)

	out := cmd.OutOrStdout()
	if verifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	printEvaluation(out, eval, verbose)
	return nil
}

func printEvaluation(w io.Writer, eval model.Evaluation, verbose bool) {
	_, _ = fmt.Fprintf(w, "%s\n", pipeline.Verdict(model.LabelFor(eval.Grounded())))

	if eval.Article != nil {
		_, _ = fmt.Fprintf(w, "  Article:       %s\n", eval.Article.Title)
		if eval.Article.URL != "" {
			_, _ = fmt.Fprintf(w, "  URL:           %s\n", eval.Article.URL)
		}
		_, _ = fmt.Fprintf(w, "  Common words:  %d (threshold %d)\n", len(eval.CommonWords), eval.Threshold)
	} else {
		_, _ = fmt.Fprintf(w, "  No article resolved\n")
	}

	if verbose {
		_, _ = fmt.Fprintf(w, "  Outcome:       %s\n", eval.Outcome)
		_, _ = fmt.Fprintf(w, "  Candidates:    %s\n", strings.Join(eval.Candidates, ", "))
		_, _ = fmt.Fprintf(w, "  Tier:          %s\n", eval.Tier)
		_, _ = fmt.Fprintf(w, "  Lookups:       %d\n", eval.Lookups)
		if len(eval.CommonWords) > 0 {
			_, _ = fmt.Fprintf(w, "  Shared:        %s\n", strings.Join(eval.CommonWords, ", "))
		}
	}
}
