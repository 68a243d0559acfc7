package model

import (
	"strings"

	"github.com/ppiankov/casewise/internal/normalize"
)

// Library is the ordered case collection. Insertion order is the
// tie-break key for ranking, so cases are only ever appended.
type Library struct {
	cases []Case
}

// NewLibrary creates a library holding the given cases in order
func NewLibrary(cases ...Case) *Library {
	lib := &Library{cases: make([]Case, 0, len(cases))}
	for _, c := range cases {
		lib.cases = append(lib.cases, c.WithDefaults())
	}
	return lib
}

// Cases returns a copy of the cases in insertion order
func (l *Library) Cases() []Case {
	out := make([]Case, len(l.cases))
	copy(out, l.cases)
	return out
}

// Len returns the number of cases
func (l *Library) Len() int {
	return len(l.cases)
}

// Get looks up a case by ID
func (l *Library) Get(id int) (Case, bool) {
	for _, c := range l.cases {
		if c.ID == id {
			return c, true
		}
	}
	return Case{}, false
}

// NextID returns max(existing ids)+1, or 1 for an empty library
func (l *Library) NextID() int {
	maxID := 0
	for _, c := range l.cases {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID + 1
}

// Append assigns the next ID to c and stores it
func (l *Library) Append(c Case) Case {
	c = c.WithDefaults()
	c.ID = l.NextID()
	l.cases = append(l.cases, c)
	return c
}

// KnownSymptoms returns every distinct normalized symptom in library order
func (l *Library) KnownSymptoms() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range l.cases {
		for _, s := range c.Symptoms {
			n := normalize.Canonical(s)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// SymptomSet returns the normalized, de-duplicated symptoms of a case
func SymptomSet(c Case) []string {
	seen := make(map[string]bool, len(c.Symptoms))
	out := make([]string, 0, len(c.Symptoms))
	for _, s := range c.Symptoms {
		n := normalize.Canonical(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Summary is a one-line rendering used by listings
func (c Case) Summary() string {
	return strings.Join(c.Symptoms, ", ") + " → " + c.PossibleCause
}
