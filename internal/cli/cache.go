package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response from all tiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if a.cache == nil {
			fmt.Fprintf(os.Stderr, "Cache is disabled (cache.enabled: false)\n")
			return nil
		}
		if err := a.cache.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Cache cleared\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
