package model

import (
	"sort"
	"time"

	"github.com/ppiankov/duckling/internal/entity"
)

// Report is the document emitted for one parsed sentence
type Report struct {
	Text     string          `json:"text"`
	TimeZone string          `json:"timezone"`
	Locale   string          `json:"locale,omitempty"`
	ParsedAt time.Time       `json:"parsed_at"`
	Cached   bool            `json:"cached"`
	Elapsed  time.Duration   `json:"elapsed_ns"`
	Entities []entity.Entity `json:"entities"`
	Summary  Summary         `json:"summary"`
	Error    *ReportError    `json:"error,omitempty"`
}

// ReportError describes a failed parse in a report
type ReportError struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"` // decode failure kind, when there is one
}

// Summary counts entities per dimension
type Summary struct {
	Total       int            `json:"total"`
	ByDimension map[string]int `json:"by_dimension"`
}

// Summarize counts entities per dimension
func Summarize(entities []entity.Entity) Summary {
	s := Summary{Total: len(entities), ByDimension: make(map[string]int)}
	for _, e := range entities {
		s.ByDimension[string(e.Dimension())]++
	}
	return s
}

// Dimensions returns the summarized dimensions in name order
func (s Summary) Dimensions() []string {
	dims := make([]string, 0, len(s.ByDimension))
	for d := range s.ByDimension {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

// NewErrorReport builds a report for a sentence that could not be parsed
func NewErrorReport(text string, err error) Report {
	return Report{
		Text:     text,
		ParsedAt: time.Now().UTC(),
		Entities: []entity.Entity{},
		Summary:  Summarize(nil),
		Error:    &ReportError{Message: err.Error(), Reason: entity.Reason(err)},
	}
}
