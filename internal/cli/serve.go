package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/groundcheck/internal/pipeline"
	"github.com/ppiankov/groundcheck/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verifier over HTTP",
	Long: `Serve exposes verification as a JSON API:

  POST /v1/verify    {"prompt": "...", "response": "..."}
  POST /v1/evaluate  {"cases": [{"prompt": "...", "response": "...", "label": "..."}]}
  GET  /healthz
  GET  /metrics      Prometheus metrics

Example:
  groundcheck serve --addr :8080
  GROUNDCHECK_SERVER_ADDR=127.0.0.1:9000 groundcheck serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		viper.Set("server.addr", f.Value.String())
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.NewPipeline(a.cfg, a.verifier, a.metrics, a.logger)
	srv := server.New(a.cfg.Server, a.verifier, p, a.metrics, a.logger)
	return srv.Run(ctx)
}
