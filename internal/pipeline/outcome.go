package pipeline

import (
	"github.com/ppiankov/casewise/internal/disambiguate"
	"github.com/ppiankov/casewise/internal/explain"
	"github.com/ppiankov/casewise/internal/model"
)

// Kind tags the shape of an Outcome
type Kind string

const (
	KindMatched    Kind = "matched"
	KindAmbiguous  Kind = "ambiguous"
	KindNoSymptoms Kind = "no_symptoms"
	KindNoMatch    Kind = "no_match"
)

const (
	MessageNoSymptoms = "No symptoms could be extracted from the description."
	MessageNoMatch    = "No confident match was found among prior cases."
)

// Outcome is the single result shape of a reasoning call. Only the fields
// relevant to Kind are set.
type Outcome struct {
	Kind          Kind                   `json:"kind"`
	RequestID     string                 `json:"request_id"`
	Input         string                 `json:"input"`
	Query         []string               `json:"query"`
	Resolutions   []model.Resolution     `json:"resolutions,omitempty"`
	Ranking       []model.MatchCandidate `json:"ranking,omitempty"`
	Case          *model.Case            `json:"case,omitempty"`
	Score         float64                `json:"score"`
	Band          model.Band             `json:"band,omitempty"`
	Signals       []model.Signal         `json:"signals,omitempty"`
	Explanation   *explain.Explanation   `json:"explanation,omitempty"`
	Narrative     *model.Narrative       `json:"narrative,omitempty"`
	Disambiguated bool                   `json:"disambiguated"`

	// Session is set only for KindAmbiguous
	Session *disambiguate.Session `json:"-"`
}

// Matched reports whether the outcome carries a case
func (o *Outcome) Matched() bool {
	return o != nil && o.Kind == KindMatched && o.Case != nil
}

// Message is the plain-text result shown to the user
func (o *Outcome) Message() string {
	switch o.Kind {
	case KindMatched:
		if o.Explanation != nil {
			return o.Explanation.Text()
		}
		return ""
	case KindNoSymptoms:
		return MessageNoSymptoms
	case KindAmbiguous:
		return "Several prior cases share this symptom; clarification is needed."
	default:
		return MessageNoMatch
	}
}
