package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/pipeline"
)

var (
	outJSON         string
	outMD           string
	outCSV          string
	batchDeadline   time.Duration
	noFooter        bool
	metricsTextfile string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <cases.yaml>",
	Short: "Verify a file of prompt/response cases and compute the hallucination rate",
	Long: `Batch verifies every case of a YAML or JSON file in parallel:
- Each case is a prompt and the model's response
- An optional label (correct / hallucinated) overrides the automatic verdict
- The hallucination rate is the share of final labels marked hallucinated

Cases file:
  - id: penicillin
    prompt: "Who discovered penicillin?"
    response: "Alexander Fleming, in 1928."
  - prompt: "What is the currency of Japan?"
    response: "The yen."
    label: correct

Example:
  groundcheck batch cases.yaml
  groundcheck batch cases.yaml --json report.json --md report.md --csv results.csv
  groundcheck batch cases.yaml --offline fixtures.yaml --metrics-textfile /var/lib/node_exporter/groundcheck.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path (empty to skip)")
	batchCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	batchCmd.Flags().StringVar(&outCSV, "csv", "", "output CSV path (optional)")
	batchCmd.Flags().DurationVar(&batchDeadline, "deadline", 30*time.Minute, "overall time limit for the run")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics for the node_exporter textfile collector")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	stderr := cmd.ErrOrStderr()

	cases, err := pipeline.LoadCases(file)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchDeadline)
	defer cancel()

	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "  groundcheck Batch Verification\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	_, _ = fmt.Fprintf(stderr, "  Cases:        %d\n", len(cases))
	_, _ = fmt.Fprintf(stderr, "  Workers:      %d\n", a.cfg.Concurrency.Workers)
	_, _ = fmt.Fprintf(stderr, "  Source:       %s\n", a.verifier.Source().Name())
	_, _ = fmt.Fprintf(stderr, "  Deadline:     %v\n", batchDeadline)
	_, _ = fmt.Fprintf(stderr, "\n")

	p := pipeline.NewPipeline(a.cfg, a.verifier, a.metrics, a.logger)
	report, err := p.Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	for _, path := range []string{outJSON, outMD, outCSV} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	renderer := pipeline.NewRenderer(a.cfg.Output.IncludeFooter && !noFooter)
	if err := renderer.Render(report, outJSON, outMD, outCSV, a.cfg.Output.Verbose, stderr); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if metricsTextfile != "" {
		if err := a.metrics.WriteTextfile(metricsTextfile); err != nil {
			return err
		}
		if a.cfg.Output.Verbose {
			_, _ = fmt.Fprintf(stderr, "✓ Wrote metrics: %s\n", metricsTextfile)
		}
	}

	return nil
}
