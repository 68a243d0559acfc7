package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/casewise/internal/disambiguate"
	"github.com/ppiankov/casewise/internal/pipeline"
)

// Reasoner runs one query through the pipeline
type Reasoner interface {
	Reason(ctx context.Context, text string, ask disambiguate.Asker) (*pipeline.Outcome, error)
}

// QueryJob reasons over one line of a batch file
type QueryJob struct {
	Index    int
	Text     string
	Reasoner Reasoner
	Timeout  time.Duration
}

// Execute runs the query without an asker, so ambiguous queries end in
// no_match rather than blocking
func (j *QueryJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	outcome, err := j.Reasoner.Reason(ctx, j.Text, nil)
	return &QueryResult{
		Index:   j.Index,
		Text:    j.Text,
		Outcome: outcome,
		Error:   err,
	}
}

// QueryResult represents the result of a query job
type QueryResult struct {
	Index   int               `json:"index"`
	Text    string            `json:"text"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
	Error   error             `json:"-"`
	Message string            `json:"error,omitempty"`
}

// GetError returns the error from the query result
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor reasons over many queries concurrently. The library and
// synonym table must not change while a batch runs.
type BatchProcessor struct {
	reasoner    Reasoner
	concurrency int
	timeout     time.Duration
}

// NewBatchProcessor creates a new batch processor. A zero timeout leaves
// each query bounded only by the batch context.
func NewBatchProcessor(reasoner Reasoner, concurrency int, timeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		reasoner:    reasoner,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// ProcessQueries runs every query and returns the results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*QueryResult {
	if len(queries) == 0 {
		return []*QueryResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, q := range queries {
			job := &QueryJob{Index: i, Text: q, Reasoner: b.reasoner, Timeout: b.timeout}
			if !pool.Submit(job) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*QueryResult, 0, len(queries))
	for r := range pool.Results() {
		qr := r.(*QueryResult)
		if qr.Error != nil {
			qr.Message = qr.Error.Error()
		}
		results = append(results, qr)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}

// ProcessFile reads queries from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads one query per line. Blank lines and lines
// starting with # are skipped.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}

// Summary counts results by outcome kind; failed queries count as "error"
func Summary(results []*QueryResult) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		switch {
		case r.Error != nil:
			counts["error"]++
		case r.Outcome != nil:
			counts[string(r.Outcome.Kind)]++
		}
	}
	return counts
}
