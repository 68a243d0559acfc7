package score

import (
	"fmt"

	"github.com/ppiankov/casewise/internal/model"
)

// Scorer computes the fuzzy Jaccard similarity between symptom sets
type Scorer struct {
	memberThreshold float64
}

// NewScorer creates a scorer. Two symptoms count as the same set member
// when their character ratio is at least memberThreshold.
func NewScorer(memberThreshold float64) *Scorer {
	return &Scorer{memberThreshold: memberThreshold}
}

// Score returns |fuzzy intersection| / |union| in [0,1].
// Each query element is counted at most once; the union is the plain set
// union. Two empty sets score 0.
func (s *Scorer) Score(query, caseSet []string) float64 {
	score, _, _ := s.calculate(query, caseSet)
	return score
}

// Matches reports whether two symptoms are the same set member
func (s *Scorer) Matches(a, b string) bool {
	return a == b || Ratio(a, b) >= s.memberThreshold
}

// Contains reports whether any element of set matches symptom
func (s *Scorer) Contains(set []string, symptom string) bool {
	for _, e := range set {
		if s.Matches(symptom, e) {
			return true
		}
	}
	return false
}

// Breakdown returns the score with a transparent signal describing its inputs
func (s *Scorer) Breakdown(query, caseSet []string) (float64, model.Signal) {
	score, inter, union := s.calculate(query, caseSet)

	return score, model.Signal{
		Type:        model.SignalFuzzyJaccard,
		Description: fmt.Sprintf("Fuzzy Jaccard: %d matched / %d in union", inter, union),
		Data: map[string]interface{}{
			"intersection": inter,
			"union":        union,
			"threshold":    s.memberThreshold,
			"score":        score,
			"formula":      "|{q ∈ Q : ∃c ∈ C, ratio(q,c) ≥ threshold}| / |Q ∪ C|",
		},
	}
}

func (s *Scorer) calculate(query, caseSet []string) (float64, int, int) {
	q := uniq(query)
	c := uniq(caseSet)

	union := len(c)
	inCase := make(map[string]bool, len(c))
	for _, e := range c {
		inCase[e] = true
	}
	for _, e := range q {
		if !inCase[e] {
			union++
		}
	}
	if union == 0 {
		return 0.0, 0, 0
	}

	inter := 0
	for _, qe := range q {
		for _, ce := range c {
			if s.Matches(qe, ce) {
				inter++
				break
			}
		}
	}

	return float64(inter) / float64(union), inter, union
}

func uniq(set []string) []string {
	seen := make(map[string]bool, len(set))
	out := make([]string, 0, len(set))
	for _, e := range set {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
