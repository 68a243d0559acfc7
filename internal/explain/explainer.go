// Package explain turns a matched case into a readable rationale.
package explain

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/normalize"
)

// Disclaimer is appended to every explanation
const Disclaimer = "This guidance is advisory only and is not a substitute for professional evaluation."

// NoOverlap is reported when query and case share no symptom exactly
const NoOverlap = "no exact symptom overlap"

// Explanation holds the sections of a rationale. Empty sections are omitted
// when rendered.
type Explanation struct {
	Overlap         []string   `json:"overlap"`
	PossibleCause   string     `json:"possible_cause,omitempty"`
	Risk            model.Risk `json:"risk,omitempty"`
	Strategies      []string   `json:"strategies,omitempty"`
	Recommendation  string     `json:"general_recommendation,omitempty"`
	SelfAssessments []string   `json:"suggested_self_assessments,omitempty"`
	Referrals       []string   `json:"referrals,omitempty"`
	Outcome         string     `json:"outcome,omitempty"`
	Score           float64    `json:"score"`
	Band            model.Band `json:"band"`
	Disclaimer      string     `json:"disclaimer"`
}

// Generator builds explanations using the configured band cut points
type Generator struct {
	thresholds model.Thresholds
}

// NewGenerator creates a generator
func NewGenerator(t model.Thresholds) *Generator {
	return &Generator{thresholds: t}
}

// Build collects the sections for a case. Sentinel outcome and
// recommendation values and an unknown risk are left out.
func (g *Generator) Build(c model.Case, score float64, query []string) Explanation {
	c = c.WithDefaults()
	e := Explanation{
		Overlap:         overlap(query, model.SymptomSet(c)),
		PossibleCause:   strings.TrimSpace(c.PossibleCause),
		Strategies:      nonBlank(c.Strategies),
		SelfAssessments: nonBlank(c.SelfAssessments),
		Referrals:       nonBlank(c.Referrals),
		Score:           score,
		Band:            model.BandWith(score, g.thresholds),
		Disclaimer:      Disclaimer,
	}
	if c.Risk != model.RiskUnknown {
		e.Risk = c.Risk
	}
	if c.HasRecommendation() {
		e.Recommendation = strings.TrimSpace(c.GeneralRecommendation)
	}
	if c.HasOutcome() {
		e.Outcome = strings.TrimSpace(c.Outcome)
	}
	return e
}

// Explain renders the rationale as plain text
func (g *Generator) Explain(c model.Case, score float64, query []string) string {
	return g.Build(c, score, query).Text()
}

// Text renders the sections in their fixed order
func (e Explanation) Text() string {
	var b strings.Builder

	if len(e.Overlap) > 0 {
		fmt.Fprintf(&b, "Matching symptoms: %s.\n", strings.Join(e.Overlap, ", "))
	} else {
		fmt.Fprintf(&b, "Note: %s with prior cases.\n", NoOverlap)
	}

	if e.PossibleCause != "" {
		fmt.Fprintf(&b, "\nPossible cause: %s.\n", trimPeriod(e.PossibleCause))
	}
	if e.Risk != "" {
		fmt.Fprintf(&b, "Estimated risk level: %s.\n", strings.ToUpper(e.Risk.String()))
	}

	if len(e.Strategies) > 0 {
		b.WriteString("\nRecommended strategies:\n")
		for i, s := range e.Strategies {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}

	if e.Recommendation != "" {
		fmt.Fprintf(&b, "\nGeneral recommendation: %s.\n", trimPeriod(e.Recommendation))
	}

	if len(e.SelfAssessments) > 0 {
		b.WriteString("\nSuggested self-assessments:\n")
		for _, s := range e.SelfAssessments {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if len(e.Referrals) > 0 {
		fmt.Fprintf(&b, "\nConsider referral to: %s.\n", strings.Join(e.Referrals, ", "))
	}

	if e.Outcome != "" {
		fmt.Fprintf(&b, "\nOutcome observed in similar cases: %s.\n", trimPeriod(e.Outcome))
	}

	fmt.Fprintf(&b, "\nSimilarity with the closest case: %.1f%% (%s confidence).\n", e.Score*100, e.Band)
	fmt.Fprintf(&b, "\n%s", e.Disclaimer)

	return b.String()
}

// overlap keeps query order
func overlap(query, caseSet []string) []string {
	inCase := make(map[string]bool, len(caseSet))
	for _, s := range caseSet {
		inCase[s] = true
	}
	out := []string{}
	for _, q := range query {
		if n := normalize.Canonical(q); inCase[n] {
			out = append(out, n)
		}
	}
	return normalize.Dedupe(out)
}

func nonBlank(items []string) []string {
	var out []string
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimPeriod(s string) string {
	return strings.TrimRight(s, ".")
}
