// Package normalize turns raw symptom descriptions into comparable fragments.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer splits free text into sentence-level fragments
type Normalizer struct {
	stopphrases map[string]bool
}

// New creates a normalizer that drops fragments equal to any of the stopphrases
func New(stopphrases []string) *Normalizer {
	n := &Normalizer{stopphrases: make(map[string]bool, len(stopphrases))}
	for _, s := range stopphrases {
		if c := Canonical(s); c != "" {
			n.stopphrases[c] = true
		}
	}
	return n
}

// Normalize splits text on commas, semicolons and periods and canonicalizes
// each fragment. Stopwords inside a multi-word fragment are kept.
func (n *Normalizer) Normalize(text string) []string {
	parts := strings.FieldsFunc(text, isFragmentBreak)

	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		f := Canonical(p)
		if f == "" || n.IsStopphrase(f) {
			continue
		}
		fragments = append(fragments, f)
	}
	return fragments
}

// IsStopphrase reports whether an already canonical fragment is a stopphrase
func (n *Normalizer) IsStopphrase(fragment string) bool {
	return n.stopphrases[fragment]
}

// Canonical lower-cases, strips diacritics and collapses whitespace
func Canonical(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// Dedupe keeps the first occurrence of every fragment
func Dedupe(fragments []string) []string {
	seen := make(map[string]bool, len(fragments))
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Words splits a canonical fragment into its words
func Words(s string) []string {
	return strings.Fields(s)
}

func isFragmentBreak(r rune) bool {
	return r == ',' || r == ';' || r == '.'
}
