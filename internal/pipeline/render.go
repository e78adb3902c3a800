package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/duckling/internal/model"
)

// Renderer writes reports as indented JSON or aligned text
type Renderer struct {
	format string
}

// NewRenderer accepts "json" or "text"; anything else falls back to text
func NewRenderer(format string) *Renderer {
	if format != "json" {
		format = "text"
	}
	return &Renderer{format: format}
}

// Render writes one or more reports. JSON output is a single document for
// one report and an array for several.
func (r *Renderer) Render(w io.Writer, reports ...model.Report) error {
	if r.format == "json" {
		return r.renderJSON(w, reports)
	}
	for i, report := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := r.renderText(w, report); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderJSON(w io.Writer, reports []model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func (r *Renderer) renderText(w io.Writer, report model.Report) error {
	fmt.Fprintf(w, "%q (%s)\n", report.Text, report.TimeZone)

	if report.Error != nil {
		if report.Error.Reason != "" {
			_, err := fmt.Fprintf(w, "  error [%s]: %s\n", report.Error.Reason, report.Error.Message)
			return err
		}
		_, err := fmt.Fprintf(w, "  error: %s\n", report.Error.Message)
		return err
	}

	if len(report.Entities) == 0 {
		_, err := fmt.Fprintln(w, "  no entities")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range report.Entities {
		fmt.Fprintf(tw, "  [%d:%d]\t%s\t%q\t%s\n", e.Start(), e.End(), e.Dimension(), e.Body(), e.Value())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	parts := make([]string, 0, len(report.Summary.ByDimension))
	for _, d := range report.Summary.Dimensions() {
		parts = append(parts, fmt.Sprintf("%s: %d", d, report.Summary.ByDimension[d]))
	}
	line := fmt.Sprintf("  %d entities (%s)", report.Summary.Total, strings.Join(parts, ", "))
	if report.Cached {
		line += " cached"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
