package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/duckling/internal/entity"
)

// Parser extracts entities from one piece of text
type Parser interface {
	ParseText(ctx context.Context, text string) ([]entity.Entity, error)
}

// ParseJob parses one sentence
type ParseJob struct {
	Text   string
	Parser Parser
}

// Execute runs the parse
func (j *ParseJob) Execute(ctx context.Context) Result {
	entities, err := j.Parser.ParseText(ctx, j.Text)
	return &ParseResult{Text: j.Text, Entities: entities, Error: err}
}

// ParseResult is the outcome for one sentence
type ParseResult struct {
	Text     string          `json:"text"`
	Entities []entity.Entity `json:"entities,omitempty"`
	Error    error           `json:"-"`
}

// GetError returns the parse error, if any
func (r *ParseResult) GetError() error {
	return r.Error
}

// BatchProcessor parses many sentences concurrently
type BatchProcessor struct {
	parser Parser
	pool   *Pool
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(parser Parser, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		parser: parser,
		pool:   NewPool(concurrency),
	}
}

// ProcessTexts parses every text and returns results in input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*ParseResult {
	jobs := make([]Job, len(texts))
	for i, text := range texts {
		jobs[i] = &ParseJob{Text: text, Parser: b.parser}
	}

	results := b.pool.Run(ctx, jobs)

	out := make([]*ParseResult, len(results))
	for i, r := range results {
		out[i] = r.(*ParseResult)
	}
	return out
}

// ProcessFile reads sentences from a file and parses them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*ParseResult, error) {
	texts, err := ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("read sentences: %w", err)
	}
	return b.ProcessTexts(ctx, texts), nil
}

// ReadLines reads one sentence per line, skipping blank lines and # comments
// and dropping duplicates
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}

// Failed counts results that carry an error
func Failed(results []*ParseResult) int {
	n := 0
	for _, r := range results {
		if r.Error != nil {
			n++
		}
	}
	return n
}
