package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the Duckling service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{noCache: true})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		res := a.svc.Ping(ctx)
		if !res.Reachable {
			return fmt.Errorf("service %s unreachable: %s", res.URL, res.Error)
		}
		fmt.Fprintf(os.Stderr, "✓ %s answered %d %q in %v\n", res.URL, res.StatusCode, res.Greeting, res.Latency.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Second, "ping timeout")
}
