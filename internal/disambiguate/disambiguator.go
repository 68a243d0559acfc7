package disambiguate

import (
	"context"
	"fmt"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/retrieve"
	"github.com/ppiankov/casewise/internal/trace"
)

// Asker poses a question to the user and returns the yes/no answer
type Asker func(Question) (bool, error)

// Disambiguator decides when clarification is needed and drives it
type Disambiguator struct {
	retriever *retrieve.Retriever
	hook      trace.Hook
}

// New creates a disambiguator sharing the retriever's membership rule
func New(retriever *retrieve.Retriever, hook trace.Hook) *Disambiguator {
	if hook == nil {
		hook = trace.Nop
	}
	return &Disambiguator{retriever: retriever, hook: hook}
}

// Begin returns a session when the query has exactly one symptom and more
// than one case contains it. Queries with two or more symptoms never need one.
func (d *Disambiguator) Begin(query []string, lib *model.Library) (*Session, bool) {
	if len(query) != 1 {
		return nil, false
	}
	candidates := d.retriever.Containing(query[0], lib)
	if len(candidates) < 2 {
		return nil, false
	}
	return NewSession(query[0], candidates, d.retriever.Scorer()), true
}

// Run drives the session to a terminal state through ask. A nil asker ends
// in StateNoMatch without asking. An asker error aborts the exchange.
func (d *Disambiguator) Run(ctx context.Context, s *Session, ask Asker) (model.MatchCandidate, bool, error) {
	if ask == nil {
		s.Abandon()
		return model.MatchCandidate{}, false, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return model.MatchCandidate{}, false, err
		}
		q, ok := s.Next()
		if !ok {
			break
		}
		trace.Emit(ctx, d.hook, trace.Event{
			Stage:  trace.StageQuestion,
			Input:  q.Shared,
			Output: q.Symptom,
			CaseID: q.CaseID,
		})

		yes, err := ask(q)
		if err != nil {
			return model.MatchCandidate{}, false, fmt.Errorf("ask question %d: %w", q.Index, err)
		}
		trace.Emit(ctx, d.hook, trace.Event{
			Stage:  trace.StageAnswer,
			Output: q.Symptom,
			CaseID: q.CaseID,
			Answer: &yes,
		})
		if err := s.Answer(yes); err != nil {
			return model.MatchCandidate{}, false, err
		}
	}

	res, ok := s.Result()
	return res, ok, nil
}
