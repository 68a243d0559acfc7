package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/ppiankov/casewise/internal/cache"
	"github.com/ppiankov/casewise/internal/disambiguate"
	"github.com/ppiankov/casewise/internal/explain"
	"github.com/ppiankov/casewise/internal/llm"
	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/normalize"
	"github.com/ppiankov/casewise/internal/retrieve"
	"github.com/ppiankov/casewise/internal/synonym"
	"github.com/ppiankov/casewise/internal/trace"
)

// ErrSessionPending is returned by Conclude while questions remain
var ErrSessionPending = errors.New("disambiguation session still pending")

// Reasoner orchestrates normalize, resolve, disambiguate, retrieve and explain
type Reasoner struct {
	config        *model.Config
	library       *model.Library
	normalizer    *normalize.Normalizer
	resolver      *synonym.Resolver
	retriever     *retrieve.Retriever
	disambiguator *disambiguate.Disambiguator
	generator     *explain.Generator
	summarizer    *llm.Summarizer // optional, nil if disabled
	logger        logging.Logger
	hook          trace.Hook
	cache         cache.Cache
}

// Option configures a Reasoner
type Option func(*Reasoner)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(r *Reasoner) { r.logger = l }
}

// WithHook subscribes h to every pipeline event
func WithHook(h trace.Hook) Option {
	return func(r *Reasoner) { r.hook = h }
}

// WithCache memoizes synonym resolutions
func WithCache(c cache.Cache) Option {
	return func(r *Reasoner) { r.cache = c }
}

// WithSummarizer enables the narrative step
func WithSummarizer(s *llm.Summarizer) Option {
	return func(r *Reasoner) { r.summarizer = s }
}

// NewReasoner creates a reasoner over lib. The current synonym table is read
// from tables on every call, so a reload takes effect on the next query.
func NewReasoner(cfg *model.Config, lib *model.Library, tables *synonym.Holder, opts ...Option) *Reasoner {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if lib == nil {
		lib = model.NewLibrary()
	}

	r := &Reasoner{
		config:  cfg,
		library: lib,
		logger:  logging.NewNopLogger(),
		hook:    trace.Nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("pipeline")

	resolverOpts := []synonym.Option{synonym.WithHook(r.hook), synonym.WithLogger(r.logger)}
	if r.cache != nil {
		resolverOpts = append(resolverOpts, synonym.WithCache(r.cache))
	}

	r.normalizer = normalize.New(cfg.Normalize.Stopphrases)
	r.resolver = synonym.NewResolver(tables, cfg.Thresholds, resolverOpts...)
	r.retriever = retrieve.New(cfg.Thresholds)
	r.disambiguator = disambiguate.New(r.retriever, r.hook)
	r.generator = explain.NewGenerator(cfg.Thresholds)
	return r
}

// Library returns the case library the reasoner reads
func (r *Reasoner) Library() *model.Library {
	return r.library
}

// Resolver exposes the synonym resolver
func (r *Reasoner) Resolver() *synonym.Resolver {
	return r.resolver
}

// Reason runs the full pipeline and always returns a terminal outcome.
// When the query is ambiguous ask is consulted; a nil ask yields no_match.
func (r *Reasoner) Reason(ctx context.Context, text string, ask disambiguate.Asker) (*Outcome, error) {
	ctx = r.begin(ctx)

	out, err := r.analyze(ctx, text)
	if err != nil || out.Kind != KindAmbiguous {
		return out, err
	}

	if _, _, err := r.disambiguator.Run(ctx, out.Session, ask); err != nil {
		return nil, fmt.Errorf("disambiguate: %w", err)
	}
	return r.Conclude(ctx, out)
}

// Analyze runs the pipeline without blocking. An ambiguous single-symptom
// query comes back as KindAmbiguous carrying the session to drive.
func (r *Reasoner) Analyze(ctx context.Context, text string) (*Outcome, error) {
	return r.analyze(r.begin(ctx), text)
}

// Conclude turns an ambiguous outcome whose session has finished into a
// matched or no_match outcome. Other outcomes are returned unchanged.
func (r *Reasoner) Conclude(ctx context.Context, out *Outcome) (*Outcome, error) {
	if out == nil || out.Kind != KindAmbiguous {
		return out, nil
	}
	if out.Session == nil || !out.Session.Done() {
		return nil, ErrSessionPending
	}
	if trace.RequestID(ctx) == "" {
		ctx = trace.NewContext(ctx, out.RequestID)
	}

	concluded := *out
	concluded.Disambiguated = true
	if best, ok := out.Session.Result(); ok {
		return r.matched(ctx, &concluded, best), nil
	}
	return r.finish(ctx, &concluded, KindNoMatch), nil
}

func (r *Reasoner) begin(ctx context.Context) context.Context {
	if trace.RequestID(ctx) != "" {
		return ctx
	}
	return trace.NewContext(ctx, uuid.NewString())
}

func (r *Reasoner) analyze(ctx context.Context, text string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{
		RequestID: trace.RequestID(ctx),
		Input:     text,
		Query:     []string{},
	}

	// 1. Normalize
	fragments := r.normalizer.Normalize(text)
	trace.Emit(ctx, r.hook, trace.Event{Stage: trace.StageNormalize, Input: text, Items: fragments})
	if len(fragments) == 0 {
		return r.finish(ctx, out, KindNoSymptoms), nil
	}

	// 2. Resolve each fragment to a canonical symptom
	query, resolutions := r.resolver.ResolveAll(ctx, fragments, r.library.KnownSymptoms())
	out.Query = query
	out.Resolutions = resolutions
	if len(query) == 0 {
		return r.finish(ctx, out, KindNoSymptoms), nil
	}

	// 3. A single symptom shared by several cases needs clarification
	if session, ok := r.disambiguator.Begin(query, r.library); ok {
		out.Kind = KindAmbiguous
		out.Session = session
		r.logger.Debug("query needs disambiguation",
			logging.String("request_id", out.RequestID),
			logging.String("symptom", session.Symptom()),
			logging.Int("candidates", len(session.Candidates())))
		return out, nil
	}

	// 4. Rank the whole library
	out.Ranking = r.retriever.Retrieve(query, r.library)
	retrieved := trace.Event{Stage: trace.StageRetrieve, Items: candidateIDs(out.Ranking)}
	if len(out.Ranking) > 0 {
		retrieved.Score = out.Ranking[0].Score
		retrieved.CaseID = out.Ranking[0].Case.ID
	}
	trace.Emit(ctx, r.hook, retrieved)

	// 5. Accept or report no confident match
	best, ok := r.retriever.Best(out.Ranking)
	if !ok {
		return r.finish(ctx, out, KindNoMatch), nil
	}
	return r.matched(ctx, out, best), nil
}

func (r *Reasoner) matched(ctx context.Context, out *Outcome, best model.MatchCandidate) *Outcome {
	c := best.Case
	out.Case = &c
	out.Score = best.Score
	out.Band = model.BandWith(best.Score, r.config.Thresholds)
	out.Signals = r.retriever.Breakdown(out.Query, best)

	// 6. Explain
	expl := r.generator.Build(c, best.Score, out.Query)
	out.Explanation = &expl

	// 7. Narrative (after ranking, never affects it)
	if r.summarizer.IsEnabled() {
		req := llm.NewRequest(c, out.Query, best.Score, out.Band, expl.Text())
		narrative, err := r.summarizer.GenerateSummary(ctx, req)
		if err != nil {
			r.logger.Warn("narrative generation failed",
				logging.String("request_id", out.RequestID), logging.Err(err))
		} else if narrative != nil {
			out.Narrative = narrative
			for _, w := range narrative.Warnings {
				r.logger.Debug("narrative note", logging.String("request_id", out.RequestID), logging.String("note", w))
			}
		}
	}

	return r.finish(ctx, out, KindMatched)
}

func (r *Reasoner) finish(ctx context.Context, out *Outcome, kind Kind) *Outcome {
	out.Kind = kind
	out.Session = nil

	e := trace.Event{Stage: trace.StageOutcome, Output: string(kind), Score: out.Score}
	if out.Case != nil {
		e.CaseID = out.Case.ID
	}
	trace.Emit(ctx, r.hook, e)

	r.logger.Info("reasoning complete",
		logging.String("request_id", out.RequestID),
		logging.String("kind", string(kind)),
		logging.Strings("symptoms", out.Query),
		logging.Float64("score", out.Score))
	return out
}

func candidateIDs(ranking []model.MatchCandidate) []string {
	ids := make([]string, 0, len(ranking))
	for _, m := range ranking {
		ids = append(ids, strconv.Itoa(m.Case.ID))
	}
	return ids
}
