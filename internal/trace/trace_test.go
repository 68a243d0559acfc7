package trace

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/casewise/internal/logging"
)

func TestMulti_SkipsNilAndPreservesOrder(t *testing.T) {
	var order []string
	a := func(Event) { order = append(order, "a") }
	b := func(Event) { order = append(order, "b") }

	Multi(a, nil, b)(Event{Stage: StageResolve})

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected [a b], got %v", order)
	}
}

func TestMulti_Empty(t *testing.T) {
	// must not panic
	Multi()(Event{})
	Multi(nil, nil)(Event{})
}

func TestWithRequestID(t *testing.T) {
	rec := &Recorder{}
	hook := WithRequestID(rec.Hook(), "req-1")

	hook(Event{Stage: StageNormalize})
	hook(Event{Stage: StageOutcome, RequestID: "other"})

	if rec.Events[0].RequestID != "req-1" {
		t.Errorf("expected request id to be stamped, got %q", rec.Events[0].RequestID)
	}
	if rec.Events[1].RequestID != "other" {
		t.Errorf("expected existing request id to be kept, got %q", rec.Events[1].RequestID)
	}
}

func TestRecorder_Stage(t *testing.T) {
	rec := &Recorder{}
	h := rec.Hook()
	h(Event{Stage: StageResolve, Tier: "exact"})
	h(Event{Stage: StageRetrieve})
	h(Event{Stage: StageResolve, Tier: "fuzzy"})

	got := rec.Stage(StageResolve)
	if len(got) != 2 || got[1].Tier != "fuzzy" {
		t.Errorf("unexpected resolve events: %+v", got)
	}
}

func TestLogHook(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := LogHook(logging.NewFromCore(core))

	hook(Event{Stage: StageResolve, Input: "no puedo dormir", Output: "insomnio", Tier: "exact", Score: 1})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tier"] != "exact" || fields["output"] != "insomnio" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if entries[0].LoggerName != "trace" {
		t.Errorf("expected logger name trace, got %q", entries[0].LoggerName)
	}
}

func TestEmit_StampsRequestIDFromContext(t *testing.T) {
	rec := &Recorder{}
	ctx := NewContext(context.Background(), "req-42")

	Emit(ctx, rec.Hook(), Event{Stage: StageResolve})
	Emit(ctx, nil, Event{Stage: StageResolve})

	if len(rec.Events) != 1 || rec.Events[0].RequestID != "req-42" {
		t.Errorf("expected one event stamped req-42, got %+v", rec.Events)
	}
}
