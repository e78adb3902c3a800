package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/duckling/internal/server"
)

var serveNoCache bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP sidecar",
	Long: `Serve exposes the parse pipeline over HTTP:

  POST /v1/parse    {"text": "...", "tz": "...", "dims": [...], "locale": "...", "reftime": <unix ms>}
  POST /v1/decode   raw Duckling response body, ?tz=<zone>

A request without tz uses locale.timezone (or the local zone), the same
default as the parse and decode commands.

  GET  /health
  GET  /ready       upstream service reachability
  GET  /metrics     Prometheus metrics

Example:
  duckling serve --listen :8080 --base-url http://duckling:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (default: serve.listen)")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable the response cache")
	_ = viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{noCache: serveNoCache})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Listen:       a.cfg.Serve.Listen,
		Parser:       a.pipeline,
		Pinger:       a.svc,
		Location:     a.location,
		MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
		Metrics:      a.metrics,
		Logger:       a.log,
		Debug:        a.cfg.Output.Verbose,
	})

	fmt.Fprintf(os.Stderr, "Listening on %s (service: %s)\n", a.cfg.Serve.Listen, a.cfg.Server.BaseURL)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
