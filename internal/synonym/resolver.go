package synonym

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ppiankov/casewise/internal/cache"
	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/normalize"
	"github.com/ppiankov/casewise/internal/score"
	"github.com/ppiankov/casewise/internal/trace"
)

// Resolver maps a normalized fragment to a canonical symptom. It tries the
// exact, fuzzy and semantic tiers in order and falls back to the fragment
// itself, so it never fails.
type Resolver struct {
	tables     *Holder
	thresholds model.Thresholds
	vocabulary *Vocabulary
	cache      cache.Cache
	hook       trace.Hook
	logger     logging.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCache memoizes resolutions in c
func WithCache(c cache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithHook sends a trace event for every resolution
func WithHook(h trace.Hook) Option {
	return func(r *Resolver) { r.hook = h }
}

// WithLogger sets the logger for cache failures
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithVocabulary replaces the built-in domain vocabulary
func WithVocabulary(v *Vocabulary) Option {
	return func(r *Resolver) { r.vocabulary = v }
}

// NewResolver creates a resolver reading the current table from tables
func NewResolver(tables *Holder, thresholds model.Thresholds, opts ...Option) *Resolver {
	if tables == nil {
		tables = NewHolder(nil)
	}
	r := &Resolver{
		tables:     tables,
		thresholds: thresholds,
		vocabulary: DefaultVocabulary(),
		hook:       trace.Nop,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps one fragment. known holds the normalized symptoms of the case
// library and feeds the semantic tier.
func (r *Resolver) Resolve(ctx context.Context, fragment string, known []string) model.Resolution {
	return r.resolve(ctx, r.tables.Load(), normalize.Canonical(fragment), known, fingerprint(known))
}

// ResolveAll resolves every fragment and returns the distinct canonical
// symptoms in first-seen order together with the per-fragment resolutions
func (r *Resolver) ResolveAll(ctx context.Context, fragments, known []string) ([]string, []model.Resolution) {
	table := r.tables.Load()
	knownFP := fingerprint(known)

	resolutions := make([]model.Resolution, 0, len(fragments))
	symptoms := make([]string, 0, len(fragments))
	for _, f := range fragments {
		res := r.resolve(ctx, table, normalize.Canonical(f), known, knownFP)
		resolutions = append(resolutions, res)
		if res.Canonical != "" {
			symptoms = append(symptoms, res.Canonical)
		}
	}
	return normalize.Dedupe(symptoms), resolutions
}

// IsValidMatch gates fuzzy and semantic matches: the similarity must reach
// the valid_match threshold and the fragment or one of the candidates must
// contain a domain vocabulary term
func (r *Resolver) IsValidMatch(fragment string, sim float64, candidates ...string) bool {
	if sim < r.thresholds.ValidMatch {
		return false
	}
	if r.vocabulary.Matches(fragment) {
		return true
	}
	for _, c := range candidates {
		if r.vocabulary.Matches(c) {
			return true
		}
	}
	return false
}

func (r *Resolver) resolve(ctx context.Context, table *Table, fragment string, known []string, knownFP string) model.Resolution {
	var key string
	if r.cache != nil {
		key = cache.Key("resolve", table.Fingerprint(), knownFP, r.thresholdKey(), fragment)
		var cached model.Resolution
		if cache.GetJSON(r.cache, key, &cached) && cached.Input == fragment {
			r.emit(ctx, cached)
			return cached
		}
	}

	res := r.exact(table, fragment)
	if res == nil {
		res = r.fuzzy(table, fragment)
	}
	if res == nil {
		res = r.semantic(fragment, known)
	}
	if res == nil {
		res = &model.Resolution{Input: fragment, Canonical: fragment, Tier: model.TierPassthrough}
	}

	if r.cache != nil && fragment != "" {
		if err := cache.SetJSON(r.cache, key, res); err != nil {
			r.logger.Debug("resolution cache write failed", logging.String("fragment", fragment), logging.Err(err))
		}
	}
	r.emit(ctx, *res)
	return *res
}

// exact accepts a key whose every word appears in the fragment. With several
// such keys the most specific wins: more words, then longer, then the
// lexicographically smaller key.
func (r *Resolver) exact(table *Table, fragment string) *model.Resolution {
	if fragment == "" {
		return nil
	}
	if v, ok := table.Lookup(fragment); ok {
		return &model.Resolution{Input: fragment, Canonical: v, Tier: model.TierExact, Score: 1.0, Key: fragment}
	}

	present := make(map[string]bool)
	for _, w := range normalize.Words(fragment) {
		present[w] = true
	}

	best := ""
	bestWords := 0
	for _, k := range table.keys {
		words := table.words[k]
		if len(words) == 0 || len(words) < bestWords {
			continue
		}
		if !containsAll(present, words) {
			continue
		}
		if len(words) > bestWords || len(k) > len(best) {
			best, bestWords = k, len(words)
		}
	}
	if best == "" {
		return nil
	}
	return &model.Resolution{Input: fragment, Canonical: table.entries[best], Tier: model.TierExact, Score: 1.0, Key: best}
}

// fuzzy takes the key with the highest character ratio. The first key in
// sorted order wins ties.
func (r *Resolver) fuzzy(table *Table, fragment string) *model.Resolution {
	if fragment == "" {
		return nil
	}
	best, bestSim := "", 0.0
	for _, k := range table.keys {
		if sim := score.Ratio(fragment, k); sim > bestSim {
			best, bestSim = k, sim
		}
	}
	if best == "" || bestSim < r.thresholds.FuzzyKey {
		return nil
	}

	canonical := table.entries[best]
	if !r.IsValidMatch(fragment, bestSim, best, canonical) {
		return nil
	}
	return &model.Resolution{Input: fragment, Canonical: canonical, Tier: model.TierFuzzy, Score: bestSim, Key: best}
}

// semantic compares the fragment with every known library symptom using
// the blended word and character score. The first symptom wins ties.
func (r *Resolver) semantic(fragment string, known []string) *model.Resolution {
	if fragment == "" {
		return nil
	}
	best, bestSim := "", 0.0
	for _, s := range known {
		if sim := score.Blend(fragment, s); sim > bestSim {
			best, bestSim = s, sim
		}
	}
	if best == "" || bestSim < r.thresholds.Semantic {
		return nil
	}
	if !r.IsValidMatch(fragment, bestSim, best) {
		return nil
	}
	return &model.Resolution{Input: fragment, Canonical: best, Tier: model.TierSemantic, Score: bestSim, Key: best}
}

func (r *Resolver) emit(ctx context.Context, res model.Resolution) {
	trace.Emit(ctx, r.hook, trace.Event{
		Stage:  trace.StageResolve,
		Input:  res.Input,
		Output: res.Canonical,
		Tier:   string(res.Tier),
		Key:    res.Key,
		Score:  res.Score,
	})
}

func (r *Resolver) thresholdKey() string {
	t := r.thresholds
	return fmt.Sprintf("%g/%g/%g", t.FuzzyKey, t.ValidMatch, t.Semantic)
}

func containsAll(set map[string]bool, words []string) bool {
	for _, w := range words {
		if !set[w] {
			return false
		}
	}
	return true
}

func fingerprint(items []string) string {
	h := sha256.New()
	for _, s := range items {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
