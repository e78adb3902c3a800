package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/pipeline"
)

var decodeJSON bool

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <file|->",
	Short: "Decode a saved Duckling response offline",
	Long: `Decode reads a raw JSON response previously returned by a Duckling service
and prints the typed entities, without contacting the service.

Times are projected into --tz (default: the configured or local zone).

Example:
  duckling decode response.json
  curl -s -XPOST localhost:8000/parse -d text=tomorrow | duckling decode - --tz Europe/Paris`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "print JSON instead of text")
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Locale.Location()
	if err != nil {
		return fmt.Errorf("locale.timezone: %w", err)
	}

	in, err := openInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	limit := cfg.Server.MaxBodyBytes
	if limit <= 0 {
		limit = client.DefaultMaxBodyBytes
	}
	raw, err := io.ReadAll(io.LimitReader(in, limit+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(raw)) > limit {
		return fmt.Errorf("response exceeds %d bytes (raise server.max_body_bytes to decode it)", limit)
	}

	entities, err := entity.Decode(raw, entity.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	format := cfg.Output.Format
	if decodeJSON {
		format = "json"
	}
	return pipeline.NewRenderer(format).Render(cmd.OutOrStdout(), model.Report{
		Text:     args[0],
		TimeZone: loc.String(),
		ParsedAt: time.Now().UTC(),
		Entities: entities,
		Summary:  model.Summarize(entities),
	})
}
