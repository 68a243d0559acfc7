package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/casewise/internal/disambiguate"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/pipeline"
	"github.com/ppiankov/casewise/internal/synonym"
)

// MockReasoner implements Reasoner
type MockReasoner struct {
	FailOn string
}

func (m *MockReasoner) Reason(ctx context.Context, text string, ask disambiguate.Asker) (*pipeline.Outcome, error) {
	if ask != nil {
		return nil, errors.New("batch queries must not be interactive")
	}
	time.Sleep(time.Millisecond)
	if text == m.FailOn {
		return nil, errors.New("reason error")
	}
	return &pipeline.Outcome{Kind: pipeline.KindNoMatch, Input: text}, nil
}

func writeQueries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write queries: %v", err)
	}
	return path
}

func TestBatchProcessor_ProcessQueries_KeepsInputOrder(t *testing.T) {
	processor := NewBatchProcessor(&MockReasoner{}, 3, 0)

	queries := make([]string, 20)
	for i := range queries {
		queries[i] = strings.Repeat("x", i+1)
	}

	results := processor.ProcessQueries(context.Background(), queries)

	if len(results) != len(queries) {
		t.Fatalf("expected %d results, got %d", len(queries), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Text != queries[i] {
			t.Errorf("result %d out of order: index=%d text=%q", i, res.Index, res.Text)
		}
		if res.Error != nil || res.Outcome == nil {
			t.Errorf("unexpected failure for %q: %v", res.Text, res.Error)
		}
	}
}

func TestBatchProcessor_ProcessQueries_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockReasoner{FailOn: "bad"}, 2, 0)

	results := processor.ProcessQueries(context.Background(), []string{"good", "bad"})

	if results[1].Error == nil || results[1].Message != "reason error" {
		t.Errorf("expected error recorded on result, got %+v", results[1])
	}

	counts := Summary(results)
	if counts["error"] != 1 || counts[string(pipeline.KindNoMatch)] != 1 {
		t.Errorf("unexpected summary %v", counts)
	}
}

func TestBatchProcessor_ProcessQueries_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockReasoner{}, 2, 0)

	results := processor.ProcessQueries(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
}

func TestBatchProcessor_WithRealReasoner(t *testing.T) {
	lib := model.NewLibrary()
	lib.Append(model.NewCase([]string{"insomnio", "tristeza persistente"}, "episodio depresivo leve", []string{"higiene del sueno"}))
	lib.Append(model.NewCase([]string{"cansancio", "perdida de apetito"}, "anemia", []string{"control medico"}))
	lib.Append(model.NewCase([]string{"cansancio", "ansiedad"}, "estres", []string{"respiracion"}))

	cfg := model.DefaultConfig()
	reasoner := pipeline.NewReasoner(cfg, lib, synonym.NewHolder(synonym.Default()))
	processor := NewBatchProcessor(reasoner, 4, time.Second)

	results := processor.ProcessQueries(context.Background(), []string{
		"no puedo dormir, me siento triste",
		"estoy bien",
		"cansancio",
	})

	want := []pipeline.Kind{pipeline.KindMatched, pipeline.KindNoSymptoms, pipeline.KindNoMatch}
	for i, res := range results {
		if res.Error != nil {
			t.Fatalf("query %d: %v", i, res.Error)
		}
		if res.Outcome.Kind != want[i] {
			t.Errorf("query %d: expected %s, got %s", i, want[i], res.Outcome.Kind)
		}
	}
}

func TestReadQueriesFromFile(t *testing.T) {
	path := writeQueries(t, "# sleep problems\nno puedo dormir\n\n  me siento triste  \n# end\n")

	queries, err := ReadQueriesFromFile(path)
	if err != nil {
		t.Fatalf("ReadQueriesFromFile failed: %v", err)
	}

	if len(queries) != 2 || queries[0] != "no puedo dormir" || queries[1] != "me siento triste" {
		t.Errorf("unexpected queries %q", queries)
	}
}

func TestReadQueriesFromFile_NonExistent(t *testing.T) {
	if _, err := ReadQueriesFromFile("/nonexistent/queries.txt"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeQueries(t, "uno\ndos\n")
	processor := NewBatchProcessor(&MockReasoner{}, 2, 0)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := processor.ProcessFile(context.Background(), "/nonexistent/queries.txt"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestQueryResult_GetError(t *testing.T) {
	res := &QueryResult{Error: errors.New("boom")}
	if res.GetError() == nil {
		t.Error("expected error")
	}
}
