package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/duckling/internal/pipeline"
	"github.com/ppiankov/duckling/internal/worker"
)

var (
	concurrency  int
	batchOutput  string
	batchDims    []string
	batchJSON    bool
	batchNoCache bool
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Parse many sentences from a file in parallel",
	Long: `Batch parses a file with one sentence per line:
- Blank lines and lines starting with # are skipped
- Duplicate sentences are parsed once
- Sentences are parsed concurrently with a bounded worker pool
- A failed sentence is reported in place and never stops the others

Example:
  duckling batch sentences.txt
  duckling batch sentences.txt --concurrency 10 --json --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write results to a file instead of stdout")
	batchCmd.Flags().StringSliceVar(&batchDims, "dims", nil, "dimensions to extract (default: all)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print JSON instead of text")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable cache (force fresh requests)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	a, err := newApp(appOptions{noCache: batchNoCache, dimensions: batchDims})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	workers := a.cfg.Concurrency.Workers
	if concurrency > 0 {
		workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Service:      %s\n", a.cfg.Server.BaseURL)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	start := time.Now()
	processor := worker.NewBatchProcessor(a.pipeline, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out, closeOut, err := openOutput(batchOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeOut(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	format := a.cfg.Output.Format
	if batchJSON {
		format = "json"
	}
	if err := pipeline.NewRenderer(format).Render(out, batchReports(a, results)...); err != nil {
		return fmt.Errorf("render results: %w", err)
	}

	failed := worker.Failed(results)
	entities := 0
	for _, r := range results {
		entities += len(r.Entities)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Sentences:  %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Entities:   %d\n", entities)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Elapsed:    %v\n", time.Since(start).Round(time.Millisecond))
	if batchOutput != "" {
		fmt.Fprintf(os.Stderr, "  Output:     %s\n", batchOutput)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if failed > 0 {
		return fmt.Errorf("%d of %d sentences failed", failed, len(results))
	}
	return nil
}
