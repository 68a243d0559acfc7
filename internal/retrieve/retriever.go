// Package retrieve ranks the case library against a query symptom set.
package retrieve

import (
	"fmt"
	"sort"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/normalize"
	"github.com/ppiankov/casewise/internal/score"
)

// Retriever scores every case and applies the acceptance threshold
type Retriever struct {
	scorer     *score.Scorer
	acceptance float64
}

// New creates a retriever from the configured thresholds
func New(t model.Thresholds) *Retriever {
	return &Retriever{
		scorer:     score.NewScorer(t.MemberMatch),
		acceptance: t.Acceptance,
	}
}

// Scorer exposes the similarity scorer used for ranking
func (r *Retriever) Scorer() *score.Scorer {
	return r.scorer
}

// Retrieve scores every case against the query, with no pruning, and sorts
// descending by score. Equal scores keep library insertion order.
func (r *Retriever) Retrieve(query []string, lib *model.Library) []model.MatchCandidate {
	if lib == nil {
		return []model.MatchCandidate{}
	}
	q := normalize.Dedupe(query)

	cases := lib.Cases()
	ranking := make([]model.MatchCandidate, 0, len(cases))
	for _, c := range cases {
		ranking = append(ranking, model.MatchCandidate{
			Case:  c,
			Score: r.scorer.Score(q, model.SymptomSet(c)),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	return ranking
}

// Acceptable reports whether a score clears the acceptance threshold
func (r *Retriever) Acceptable(s float64) bool {
	return s >= r.acceptance
}

// Best returns the top candidate when it clears the acceptance threshold.
// An empty ranking or a low top score is "no confident match".
func (r *Retriever) Best(ranking []model.MatchCandidate) (model.MatchCandidate, bool) {
	if len(ranking) == 0 || !r.Acceptable(ranking[0].Score) {
		return model.MatchCandidate{}, false
	}
	return ranking[0], true
}

// Containing returns the cases, in library order, whose symptom set holds a
// fuzzy member of symptom
func (r *Retriever) Containing(symptom string, lib *model.Library) []model.Case {
	if lib == nil {
		return nil
	}
	var out []model.Case
	for _, c := range lib.Cases() {
		if r.scorer.Contains(model.SymptomSet(c), symptom) {
			out = append(out, c)
		}
	}
	return out
}

// Breakdown returns the acceptance signal alongside the similarity signal
// for one candidate
func (r *Retriever) Breakdown(query []string, c model.MatchCandidate) []model.Signal {
	_, similarity := r.scorer.Breakdown(normalize.Dedupe(query), model.SymptomSet(c.Case))
	return []model.Signal{
		similarity,
		{
			Type:        model.SignalAcceptance,
			Description: fmt.Sprintf("Score %.2f against acceptance threshold %.2f", c.Score, r.acceptance),
			Data: map[string]interface{}{
				"score":     c.Score,
				"threshold": r.acceptance,
				"accepted":  r.Acceptable(c.Score),
			},
		},
	}
}
