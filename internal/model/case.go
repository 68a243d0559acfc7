package model

import (
	"fmt"
	"strings"
)

const (
	// OutcomeNotSpecified is stored when a case carries no observed outcome
	OutcomeNotSpecified = "not specified"

	// NoAdditionalRecommendation is stored when a case has no general recommendation
	NoAdditionalRecommendation = "no additional recommendation"
)

// Risk is the estimated risk level attached to a case
type Risk string

const (
	RiskUnknown  Risk = "unknown"
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
)

// ParseRisk accepts the canonical labels and the legacy Spanish ones.
// An empty string maps to RiskUnknown.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown", "desconocido":
		return RiskUnknown, nil
	case "low", "bajo":
		return RiskLow, nil
	case "moderate", "moderado", "medio":
		return RiskModerate, nil
	case "high", "alto":
		return RiskHigh, nil
	default:
		return RiskUnknown, fmt.Errorf("unknown risk level %q", s)
	}
}

func (r Risk) String() string {
	if r == "" {
		return string(RiskUnknown)
	}
	return string(r)
}

// Case is a single precedent record
type Case struct {
	ID                    int      `json:"id" yaml:"id"`
	Symptoms              []string `json:"symptoms" yaml:"symptoms"`
	PossibleCause         string   `json:"possible_cause" yaml:"possible_cause"`
	Strategies            []string `json:"strategies" yaml:"strategies"`
	Outcome               string   `json:"outcome" yaml:"outcome"`
	SelfAssessments       []string `json:"suggested_self_assessments" yaml:"suggested_self_assessments"`
	Risk                  Risk     `json:"risk" yaml:"risk"`
	Referrals             []string `json:"referrals" yaml:"referrals"`
	GeneralRecommendation string   `json:"general_recommendation" yaml:"general_recommendation"`
}

// NewCase creates a case with every optional field defaulted.
// The ID is left at zero; the library assigns it on append.
func NewCase(symptoms []string, cause string, strategies []string) Case {
	return Case{
		Symptoms:      symptoms,
		PossibleCause: cause,
		Strategies:    strategies,
	}.WithDefaults()
}

// WithDefaults returns a copy where nil sequences are empty and
// blank text fields carry their sentinels.
func (c Case) WithDefaults() Case {
	c.Symptoms = nonNil(c.Symptoms)
	c.Strategies = nonNil(c.Strategies)
	c.SelfAssessments = nonNil(c.SelfAssessments)
	c.Referrals = nonNil(c.Referrals)

	if strings.TrimSpace(c.Outcome) == "" {
		c.Outcome = OutcomeNotSpecified
	}
	if strings.TrimSpace(c.GeneralRecommendation) == "" {
		c.GeneralRecommendation = NoAdditionalRecommendation
	}
	if c.Risk == "" {
		c.Risk = RiskUnknown
	}
	return c
}

// HasOutcome reports whether the outcome is something other than the sentinel
func (c Case) HasOutcome() bool {
	o := strings.TrimSpace(c.Outcome)
	return o != "" && o != OutcomeNotSpecified
}

// HasRecommendation reports whether the recommendation is something other than the sentinel
func (c Case) HasRecommendation() bool {
	r := strings.TrimSpace(c.GeneralRecommendation)
	return r != "" && r != NoAdditionalRecommendation
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
