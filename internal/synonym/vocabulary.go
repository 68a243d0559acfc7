package synonym

import (
	"strings"

	"github.com/ppiankov/casewise/internal/normalize"
)

// defaultStems is the affect, emotion and clinical allow-list that fuzzy and
// semantic matches must touch. Stems are normalized (no accents).
var defaultStems = []string{
	// mood
	"trist", "depres", "deprim", "desanim", "melancol", "pena", "llor", "animo", "vacio",
	"desesper", "anhedon",
	// anxiety and fear
	"ansi", "angust", "mied", "temor", "fobi", "panico", "nervi", "inquiet", "tension",
	"estres", "preocup", "obsesi", "compuls",
	// sleep and energy
	"insomn", "dorm", "duerm", "sueno", "descans", "pesadill", "cans", "fatig", "agot",
	"energ", "fuerza",
	// appetite and body
	"apetit", "hambre", "comer", "aliment", "peso", "dolor", "palpit", "sudor", "tembl",
	"mareo",
	// risk
	"suicid", "morir", "muerte", "matar", "vivir", "autoles", "lastim", "hacerme dano",
	// social and self
	"solo", "sola", "soledad", "aisl", "culpa", "verguenz", "autoestima", "inutil",
	// anger
	"ira", "enojo", "rabia", "frustr", "irrit", "agresi",
	// cognition
	"concentr", "memori", "olvid", "confus",
}

// Vocabulary decides whether text belongs to the clinical domain
type Vocabulary struct {
	stems  []string
	phrase []string
}

// NewVocabulary builds a vocabulary from stems. A stem with a space is a
// phrase and matches by substring; otherwise it matches any word it prefixes.
func NewVocabulary(stems []string) *Vocabulary {
	v := &Vocabulary{}
	for _, s := range stems {
		s = normalize.Canonical(s)
		switch {
		case s == "":
		case strings.Contains(s, " "):
			v.phrase = append(v.phrase, s)
		default:
			v.stems = append(v.stems, s)
		}
	}
	return v
}

// DefaultVocabulary returns the built-in allow-list
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultStems)
}

// Matches reports whether any word of the canonical text starts with a stem
func (v *Vocabulary) Matches(text string) bool {
	for _, p := range v.phrase {
		if strings.Contains(text, p) {
			return true
		}
	}
	for _, w := range normalize.Words(text) {
		for _, s := range v.stems {
			if strings.HasPrefix(w, s) {
				return true
			}
		}
	}
	return false
}
