// Package disambiguate narrows a single ambiguous symptom to one case
// through sequential yes/no questions.
package disambiguate

import (
	"errors"
	"fmt"

	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/score"
)

// State of a clarification exchange
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateAmbiguous     State = "single_symptom_ambiguous"
	StateResolved      State = "resolved"
	StateNoMatch       State = "no_match"
)

// ErrNoPendingQuestion is returned by Answer when no question is outstanding
var ErrNoPendingQuestion = errors.New("no pending question")

// Question asks whether the user also has a symptom that only one of the
// candidate cases carries
type Question struct {
	CaseID  int    `json:"case_id"`
	Symptom string `json:"symptom"`
	Shared  string `json:"shared"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
}

// Text renders the question for a prompt
func (q Question) Text() string {
	return fmt.Sprintf("Besides %q, do you also have %q?", q.Shared, q.Symptom)
}

// Session holds one exchange. It is not safe for concurrent use.
type Session struct {
	symptom    string
	candidates []model.Case
	questions  []Question
	next       int
	pending    *Question
	state      State
	resolved   *model.Case
	// candidates with no distinguishing symptom
	unasked []model.Case
}

// NewSession prepares the questions for the candidates sharing symptom.
// For each candidate, in order, the question uses its first symptom that is
// not a fuzzy member of the shared one. Candidates without such a symptom
// get no question; when every question is declined and exactly one of them
// remains, the session resolves to it.
func NewSession(symptom string, candidates []model.Case, matcher *score.Scorer) *Session {
	s := &Session{
		symptom:    symptom,
		candidates: append([]model.Case(nil), candidates...),
		state:      StateAwaitingInput,
	}
	for _, c := range s.candidates {
		asked := false
		for _, other := range model.SymptomSet(c) {
			if matcher.Matches(symptom, other) {
				continue
			}
			s.questions = append(s.questions, Question{CaseID: c.ID, Symptom: other, Shared: symptom})
			asked = true
			break
		}
		if !asked {
			s.unasked = append(s.unasked, c)
		}
	}
	for i := range s.questions {
		s.questions[i].Index = i + 1
		s.questions[i].Total = len(s.questions)
	}
	return s
}

// Symptom returns the shared ambiguous symptom
func (s *Session) Symptom() string {
	return s.symptom
}

// Candidates returns the cases sharing the symptom in library order
func (s *Session) Candidates() []model.Case {
	return append([]model.Case(nil), s.candidates...)
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Asked returns the number of questions posed so far
func (s *Session) Asked() int {
	return s.next
}

// Next returns the pending question, posing a new one if needed. It returns
// false once the session is finished. Running out of questions resolves to
// the single candidate that had no question, or ends in StateNoMatch.
func (s *Session) Next() (Question, bool) {
	if s.Done() {
		return Question{}, false
	}
	if s.pending != nil {
		return *s.pending, true
	}
	if s.next >= len(s.questions) {
		if len(s.unasked) == 1 {
			c := s.unasked[0]
			s.resolved = &c
			s.state = StateResolved
			return Question{}, false
		}
		s.state = StateNoMatch
		return Question{}, false
	}

	q := s.questions[s.next]
	s.next++
	s.pending = &q
	s.state = StateAmbiguous
	return q, true
}

// Answer records the reply to the pending question. Yes resolves the
// session to that question's case immediately.
func (s *Session) Answer(yes bool) error {
	if s.pending == nil {
		return ErrNoPendingQuestion
	}
	q := *s.pending
	s.pending = nil

	if !yes {
		return nil
	}
	for i := range s.candidates {
		if s.candidates[i].ID == q.CaseID {
			c := s.candidates[i]
			s.resolved = &c
			s.state = StateResolved
			return nil
		}
	}
	return fmt.Errorf("question refers to unknown case %d", q.CaseID)
}

// Abandon ends the session without a match
func (s *Session) Abandon() {
	if !s.Done() {
		s.pending = nil
		s.state = StateNoMatch
	}
}

// Done reports whether the session reached a terminal state
func (s *Session) Done() bool {
	return s.state == StateResolved || s.state == StateNoMatch
}

// Result returns the confirmed case with confidence 1.0
func (s *Session) Result() (model.MatchCandidate, bool) {
	if s.state != StateResolved || s.resolved == nil {
		return model.MatchCandidate{}, false
	}
	return model.MatchCandidate{Case: *s.resolved, Score: 1.0}, true
}
