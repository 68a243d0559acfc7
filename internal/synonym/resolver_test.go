package synonym

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/casewise/internal/cache"
	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/trace"
)

func newTestResolver(entries map[string]string, opts ...Option) *Resolver {
	return NewResolver(NewHolder(NewTable(entries)), model.DefaultThresholds(), opts...)
}

func TestResolver_Resolve_ExactKeys(t *testing.T) {
	r := NewResolver(NewHolder(Default()), model.DefaultThresholds())
	ctx := context.Background()

	tests := map[string]string{
		"no puedo dormir":          "insomnio",
		"me siento triste":         "tristeza persistente",
		"ya no tengo hambre":       "perdida de apetito",
		"a veces me quiero morir":  "ideas suicidas",
		"Tengo MUCHO sueño":        "falta de energia",
		"dormir no puedo de noche": "insomnio",
	}

	for input, want := range tests {
		res := r.Resolve(ctx, input, nil)
		if res.Canonical != want {
			t.Errorf("Resolve(%q): expected %q, got %q", input, want, res.Canonical)
		}
		if res.Tier != model.TierExact || res.Score != 1.0 {
			t.Errorf("Resolve(%q): expected exact tier with score 1, got %s %f", input, res.Tier, res.Score)
		}
	}
}

func TestResolver_Resolve_ExactPrefersMostSpecificKey(t *testing.T) {
	r := newTestResolver(map[string]string{
		"dormir":          "sueno",
		"no puedo dormir": "insomnio",
	})

	res := r.Resolve(context.Background(), "no puedo dormir bien", nil)
	if res.Canonical != "insomnio" || res.Key != "no puedo dormir" {
		t.Errorf("expected the three-word key to win, got %+v", res)
	}
}

func TestResolver_Resolve_ExactTieBreak(t *testing.T) {
	r := newTestResolver(map[string]string{
		"duermo mal": "insomnio",
		"mal sueno":  "fatiga",
		"mal comer":  "apetito",
	})

	// equal word counts: the longer key wins
	res := r.Resolve(context.Background(), "duermo mal sueno", nil)
	if res.Key != "duermo mal" {
		t.Errorf("expected longer key, got %q", res.Key)
	}

	// equal word counts and lengths: the smaller key wins
	res = r.Resolve(context.Background(), "mal comer sueno", nil)
	if res.Key != "mal comer" {
		t.Errorf("expected lexicographically smaller key, got %q", res.Key)
	}
}

func TestResolver_Resolve_Fuzzy(t *testing.T) {
	r := NewResolver(NewHolder(Default()), model.DefaultThresholds())

	res := r.Resolve(context.Background(), "no puedo dormr", nil)
	if res.Tier != model.TierFuzzy {
		t.Fatalf("expected fuzzy tier, got %+v", res)
	}
	if res.Canonical != "insomnio" || res.Key != "no puedo dormir" {
		t.Errorf("unexpected fuzzy resolution: %+v", res)
	}
	if res.Score < 0.65 || res.Score >= 1.0 {
		t.Errorf("fuzzy score out of range: %f", res.Score)
	}
}

func TestResolver_Resolve_FuzzyRejectedOutsideVocabulary(t *testing.T) {
	r := newTestResolver(map[string]string{"hola que tal": "saludo"})

	res := r.Resolve(context.Background(), "hola que tas", nil)
	if res.Tier != model.TierPassthrough || res.Canonical != "hola que tas" {
		t.Errorf("expected passthrough, got %+v", res)
	}
}

func TestResolver_Resolve_Semantic(t *testing.T) {
	r := newTestResolver(nil)
	known := []string{"insomnio", "falta de energia"}

	res := r.Resolve(context.Background(), "falta energia", known)
	if res.Tier != model.TierSemantic || res.Canonical != "falta de energia" {
		t.Errorf("expected semantic match, got %+v", res)
	}
}

func TestResolver_Resolve_Passthrough(t *testing.T) {
	r := newTestResolver(nil)

	for _, input := range []string{"dolor de rodilla izquierda", "xyz", ""} {
		res := r.Resolve(context.Background(), input, []string{"insomnio"})
		if res.Tier != model.TierPassthrough || res.Canonical != input {
			t.Errorf("Resolve(%q): expected passthrough to itself, got %+v", input, res)
		}
	}
}

func TestResolver_IsValidMatch(t *testing.T) {
	r := newTestResolver(nil)

	if r.IsValidMatch("me siento triste", 0.59) {
		t.Error("expected low similarity to be rejected")
	}
	if !r.IsValidMatch("me siento triste", 0.6) {
		t.Error("expected vocabulary fragment to pass")
	}
	if r.IsValidMatch("hola que tal", 0.9, "buenas tardes") {
		t.Error("expected non-domain pair to be rejected")
	}
	if !r.IsValidMatch("hola que tal", 0.9, "ansiedad") {
		t.Error("expected domain candidate to pass")
	}
}

func TestResolver_ResolveAll_DedupesInOrder(t *testing.T) {
	r := NewResolver(NewHolder(Default()), model.DefaultThresholds())

	symptoms, resolutions := r.ResolveAll(context.Background(),
		[]string{"no puedo dormir", "me siento triste", "duermo poco"}, nil)

	if len(symptoms) != 2 || symptoms[0] != "insomnio" || symptoms[1] != "tristeza persistente" {
		t.Errorf("unexpected symptoms: %q", symptoms)
	}
	if len(resolutions) != 3 {
		t.Errorf("expected one resolution per fragment, got %d", len(resolutions))
	}
}

func TestResolver_EmitsTraceEvents(t *testing.T) {
	rec := &trace.Recorder{}
	r := NewResolver(NewHolder(Default()), model.DefaultThresholds(), WithHook(rec.Hook()))
	ctx := trace.NewContext(context.Background(), "req-1")

	r.ResolveAll(ctx, []string{"no puedo dormir", "algo nuevo"}, nil)

	events := rec.Stage(trace.StageResolve)
	if len(events) != 2 {
		t.Fatalf("expected 2 resolve events, got %d", len(events))
	}
	if events[0].Tier != "exact" || events[1].Tier != "passthrough" {
		t.Errorf("unexpected tiers: %s, %s", events[0].Tier, events[1].Tier)
	}
	if events[0].RequestID != "req-1" {
		t.Errorf("expected request id, got %q", events[0].RequestID)
	}
}

func TestResolver_CacheKeyedByTable(t *testing.T) {
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	holder := NewHolder(NewTable(map[string]string{"me siento solo": "aislamiento social"}))
	r := NewResolver(holder, model.DefaultThresholds(), WithCache(mem))
	ctx := context.Background()

	first := r.Resolve(ctx, "me siento solo", nil)
	second := r.Resolve(ctx, "me siento solo", nil)
	if first != second || mem.Len() != 1 {
		t.Errorf("expected a single memoized resolution, got %+v / %+v (%d entries)", first, second, mem.Len())
	}

	holder.Store(NewTable(map[string]string{"me siento solo": "soledad"}))
	third := r.Resolve(ctx, "me siento solo", nil)
	if third.Canonical != "soledad" {
		t.Errorf("expected a swapped table to bypass stale entries, got %q", third.Canonical)
	}
}

type readOnlyCache struct{ cache.Cache }

func (readOnlyCache) Set(string, []byte, time.Duration) error {
	return errors.New("read-only filesystem")
}

func TestResolver_LogsCacheWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	r := newTestResolver(map[string]string{"no puedo dormir": "insomnio"},
		WithCache(readOnlyCache{mem}), WithLogger(logging.NewFromCore(core)))

	res := r.Resolve(context.Background(), "no puedo dormir", nil)
	if res.Canonical != "insomnio" {
		t.Errorf("a failed cache write must not change the resolution, got %q", res.Canonical)
	}

	entries := logs.FilterMessage("resolution cache write failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one cache failure log, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("expected debug level, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["fragment"]; got != "no puedo dormir" {
		t.Errorf("expected fragment field, got %v", got)
	}
}
