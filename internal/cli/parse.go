package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/duckling/internal/extract"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/pipeline"
	"github.com/ppiankov/duckling/internal/worker"
)

var (
	parseDims    []string
	parseJSON    bool
	parseHTML    string
	parseNoCache bool
	parseRefTime string
	parseTimeout time.Duration
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Extract typed entities from text",
	Long: `Parse sends text to the Duckling service and prints the decoded entities.

Text is taken from the arguments, or from stdin when none are given or the
only argument is "-". With --html, the visible text of an HTML document is
split into sentences and each sentence is parsed on its own.

Example:
  duckling parse "tomorrow at 6pm"
  duckling parse "over 5 inches" --dims distance --json
  duckling parse --tz Asia/Tokyo --reftime 2018-03-07T12:00:00Z "next friday"
  duckling parse --html page.html`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringSliceVar(&parseDims, "dims", nil, "dimensions to extract (default: all)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print JSON instead of text")
	parseCmd.Flags().StringVar(&parseHTML, "html", "", "parse the visible text of an HTML file (- for stdin)")
	parseCmd.Flags().BoolVar(&parseNoCache, "no-cache", false, "disable cache (force a fresh request)")
	parseCmd.Flags().StringVar(&parseRefTime, "reftime", "", "reference time for relative expressions (RFC 3339, default: now)")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{noCache: parseNoCache, dimensions: parseDims})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), parseTimeout)
	defer cancel()

	format := a.cfg.Output.Format
	if parseJSON {
		format = "json"
	}
	renderer := pipeline.NewRenderer(format)

	if parseHTML != "" {
		return parseDocument(ctx, cmd, a, renderer)
	}

	text, err := inputText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	req := a.pipeline.Request(text)
	if parseRefTime != "" {
		if req.ReferenceTime, err = time.Parse(time.RFC3339, parseRefTime); err != nil {
			return fmt.Errorf("invalid --reftime: %w", err)
		}
	}

	res, err := a.pipeline.Parse(ctx, req)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	if a.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ %d entities in %v (cached: %v)\n", len(res.Entities), res.Elapsed, res.Cached)
	}
	return renderer.Render(cmd.OutOrStdout(), res.Report())
}

func parseDocument(ctx context.Context, cmd *cobra.Command, a *app, renderer *pipeline.Renderer) error {
	in, err := openInput(parseHTML, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	text, err := extract.VisibleText(in)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	sentences := extract.Sentences(text)
	if len(sentences) == 0 {
		return fmt.Errorf("no text found in %s", parseHTML)
	}

	if a.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Parsing %d sentences with %d workers...\n", len(sentences), a.cfg.Concurrency.Workers)
	}

	processor := worker.NewBatchProcessor(a.pipeline, a.cfg.Concurrency.Workers)
	results := processor.ProcessTexts(ctx, sentences)
	if err := renderer.Render(cmd.OutOrStdout(), batchReports(a, results)...); err != nil {
		return err
	}

	if failed := worker.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d sentences failed", failed, len(results))
	}
	return nil
}

// batchReports turns per-sentence results into reports, keeping failures in place
func batchReports(a *app, results []*worker.ParseResult) []model.Report {
	reports := make([]model.Report, len(results))
	for i, r := range results {
		if r.Error != nil {
			reports[i] = model.NewErrorReport(r.Text, r.Error)
			continue
		}
		req := a.pipeline.Request(r.Text)
		reports[i] = model.Report{
			Text:     r.Text,
			TimeZone: req.Location.String(),
			Locale:   req.Locale,
			ParsedAt: time.Now().UTC(),
			Entities: r.Entities,
			Summary:  model.Summarize(r.Entities),
		}
	}
	return reports
}

func inputText(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text to parse")
	}
	return text, nil
}

// openInput opens path, or wraps stdin for "-"
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
