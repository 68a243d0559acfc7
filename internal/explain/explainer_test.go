package explain

import (
	"strings"
	"testing"

	"github.com/ppiankov/casewise/internal/model"
)

func fullCase() model.Case {
	return model.Case{
		ID:                    7,
		Symptoms:              []string{"Insomnio", "tristeza persistente", "aislamiento social"},
		PossibleCause:         "Episodio depresivo",
		Strategies:            []string{"Terapia cognitivo-conductual", "Activacion conductual"},
		Outcome:               "Mejoria a las 6 semanas",
		SelfAssessments:       []string{"PHQ-9"},
		Risk:                  model.RiskModerate,
		Referrals:             []string{"psiquiatria"},
		GeneralRecommendation: "Mantener rutina de sueno",
	}
}

func TestGenerator_Explain_SectionOrder(t *testing.T) {
	g := NewGenerator(model.DefaultThresholds())

	text := g.Explain(fullCase(), 0.75, []string{"insomnio", "tristeza persistente"})

	order := []string{
		"Matching symptoms: insomnio, tristeza persistente.",
		"Possible cause: Episodio depresivo.",
		"Estimated risk level: MODERATE.",
		"  1. Terapia cognitivo-conductual",
		"  2. Activacion conductual",
		"General recommendation: Mantener rutina de sueno.",
		"  - PHQ-9",
		"Consider referral to: psiquiatria.",
		"Outcome observed in similar cases: Mejoria a las 6 semanas.",
		"Similarity with the closest case: 75.0% (high confidence).",
		Disclaimer,
	}

	pos := -1
	for _, want := range order {
		i := strings.Index(text, want)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
		if i < pos {
			t.Errorf("%q out of order", want)
		}
		pos = i
	}
	if !strings.HasSuffix(text, Disclaimer) {
		t.Error("expected the disclaimer last")
	}
}

func TestGenerator_Explain_OmitsEmptyAndSentinelSections(t *testing.T) {
	g := NewGenerator(model.DefaultThresholds())
	c := model.NewCase([]string{"ansiedad"}, "estres", nil)

	text := g.Explain(c, 0.3, []string{"insomnio"})

	for _, absent := range []string{
		"risk level",
		"Recommended strategies",
		"General recommendation",
		"self-assessments",
		"referral",
		"Outcome observed",
		model.OutcomeNotSpecified,
		model.NoAdditionalRecommendation,
		"None",
	} {
		if strings.Contains(text, absent) {
			t.Errorf("expected %q to be omitted:\n%s", absent, text)
		}
	}
	if !strings.Contains(text, NoOverlap) {
		t.Error("expected the no-overlap notice")
	}
	if !strings.Contains(text, "(low confidence)") {
		t.Error("expected the low band")
	}
	if !strings.HasSuffix(text, Disclaimer) {
		t.Error("expected the disclaimer even for sparse cases")
	}
}

func TestGenerator_Build_Bands(t *testing.T) {
	g := NewGenerator(model.DefaultThresholds())
	c := fullCase()

	tests := []struct {
		score float64
		want  model.Band
	}{
		{1.0, model.BandHigh},
		{0.7, model.BandHigh},
		{0.69, model.BandModerate},
		{0.4, model.BandModerate},
		{0.39, model.BandLow},
		{0, model.BandLow},
	}
	for _, tt := range tests {
		if got := g.Build(c, tt.score, nil).Band; got != tt.want {
			t.Errorf("band for %.2f: expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestGenerator_Build_OverlapIsNormalized(t *testing.T) {
	g := NewGenerator(model.DefaultThresholds())

	e := g.Build(fullCase(), 1, []string{"INSOMNIO", "insomnio", "fatiga"})
	if len(e.Overlap) != 1 || e.Overlap[0] != "insomnio" {
		t.Errorf("unexpected overlap %q", e.Overlap)
	}
}
