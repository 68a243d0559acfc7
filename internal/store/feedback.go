package store

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/normalize"
)

// Feedback is a confirmed or corrected answer for a query. It becomes a new
// precedent case built from the query's canonical symptoms.
type Feedback struct {
	Symptoms       []string
	Cause          string
	Strategies     []string
	Outcome        string
	Risk           model.Risk
	Referrals      []string
	Assessments    []string
	Recommendation string
}

// Feedback appends a case acquired from a reasoning session
func (s *JSONStore) Feedback(lib *model.Library, fb Feedback) (model.Case, error) {
	symptoms := normalize.Dedupe(canonical(fb.Symptoms))
	if len(symptoms) == 0 {
		return model.Case{}, fmt.Errorf("feedback needs at least one symptom")
	}
	if strings.TrimSpace(fb.Cause) == "" {
		return model.Case{}, fmt.Errorf("feedback needs a cause")
	}

	c := model.NewCase(symptoms, strings.TrimSpace(fb.Cause), trimAll(fb.Strategies))
	c.Outcome = strings.TrimSpace(fb.Outcome)
	c.Risk = fb.Risk
	c.Referrals = trimAll(fb.Referrals)
	c.SelfAssessments = trimAll(fb.Assessments)
	c.GeneralRecommendation = strings.TrimSpace(fb.Recommendation)

	stored, err := s.Append(lib, c)
	if err != nil {
		return model.Case{}, fmt.Errorf("save feedback: %w", err)
	}
	return stored, nil
}

func canonical(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if c := normalize.Canonical(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}
