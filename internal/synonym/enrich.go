package synonym

import (
	"sort"
	"strings"

	"github.com/ppiankov/casewise/internal/normalize"
)

var templates = []string{
	"me cuesta %s",
	"no puedo %s",
	"tengo problemas para %s",
	"dificultad para %s",
	"me resulta difícil %s",
	"siento que no puedo %s",
	"no logro %s",
	"me cuesta mucho %s",
	"problemas para %s",
	"me es difícil %s",
}

var sleepPhrases = []string{
	"no puedo dormir bien",
	"me cuesta dormir por las noches",
	"duermo mal",
	"duermo muy poco",
	"no descanso bien",
}

var energyPhrases = []string{
	"no tengo energía",
	"me siento sin fuerzas",
	"sin ganas de hacer nada",
	"me falta energía",
	"me siento agotado",
}

var carriers = []string{
	"tengo %s",
	"me da %s",
	"siento %s",
	"padezco %s",
	"experimento %s",
	"presento %s",
	"he tenido %s",
	"estoy con %s",
}

var contextual = []string{
	"problemas con %s",
	"dificultad por %s",
	"síntomas de %s",
	"molestia relacionada con %s",
	"trastorno asociado a %s",
	"tendencia a %s",
}

// emotional word substitutions; keys are single normalized words
var emotional = map[string][]string{
	"miedo":        {"temor", "fobia", "pánico", "ansiedad", "angustia"},
	"tristeza":     {"desánimo", "melancolía", "depresión", "pena"},
	"preocupacion": {"inquietud", "ansiedad", "angustia", "estrés"},
	"culpa":        {"vergüenza", "remordimiento", "autorreproche"},
	"ira":          {"enojo", "molestia", "rabia", "frustración"},
	"cansancio":    {"fatiga", "agotamiento", "falta de energía"},
	"ansiedad":     {"nerviosismo", "inquietud", "tensión", "estrés"},
	"fobia":        {"temor intenso", "aversión", "miedo irracional"},
}

var prepositions = []string{"a", "con", "por", "hacia", "de", "ante"}

var relationalForms = []string{"hacia", "por", "con", "ante", "al"}

// Enrich derives everyday phrasings for each symptom and adds them to a copy
// of base. Existing keys are never overwritten and the first symptom to
// claim a phrase keeps it. It returns the new table and the number of
// phrases added.
func Enrich(base *Table, symptoms []string) (*Table, int) {
	entries := base.Entries()
	added := 0

	for _, s := range normalize.Dedupe(canonicalAll(symptoms)) {
		for _, v := range Variants(s) {
			if v == s {
				continue
			}
			if _, exists := entries[v]; exists {
				continue
			}
			entries[v] = s
			added++
		}
	}
	return build(entries), added
}

// Variants returns the normalized phrasings generated for one canonical
// symptom, sorted
func Variants(symptom string) []string {
	s := normalize.Canonical(symptom)
	if s == "" {
		return nil
	}

	set := make(map[string]bool)
	add := func(v string) {
		if c := normalize.Canonical(v); c != "" {
			set[c] = true
		}
	}

	switch {
	case strings.Contains(s, "dormir"):
		for _, p := range sleepPhrases {
			add(p)
		}
	case strings.Contains(s, "energ"):
		for _, p := range energyPhrases {
			add(p)
		}
	default:
		for _, t := range templates {
			add(strings.Replace(t, "%s", s, 1))
		}
	}

	for _, c := range carriers {
		add(strings.Replace(c, "%s", s, 1))
	}
	for _, v := range substitutions(s) {
		add(v)
	}
	for _, v := range relational(s) {
		add(v)
	}
	for _, c := range contextual {
		add(strings.Replace(c, "%s", s, 1))
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// substitutions swaps whole emotional words for their near synonyms
func substitutions(s string) []string {
	words := normalize.Words(s)
	var out []string
	for i, w := range words {
		for _, syn := range emotional[w] {
			swapped := append(append(append([]string{}, words[:i]...), syn), words[i+1:]...)
			out = append(out, strings.Join(swapped, " "))
		}
	}
	return out
}

// relational rewrites "x <prep> y" with other prepositions, and with the
// emotional synonyms of x
func relational(s string) []string {
	words := normalize.Words(s)
	var out []string
	for _, prep := range prepositions {
		i := indexFrom(words, prep, 1)
		if i < 0 || i >= len(words)-1 {
			continue
		}
		x := strings.Join(words[:i], " ")
		y := strings.Join(words[i+1:], " ")

		out = append(out, x+" "+prep+" "+y)
		for _, form := range relationalForms {
			out = append(out, x+" "+form+" "+y)
		}
		for _, w := range words[:i] {
			for _, syn := range emotional[w] {
				out = append(out, syn+" "+prep+" "+y)
			}
		}
	}
	return out
}

func indexFrom(words []string, target string, from int) int {
	for i := from; i < len(words); i++ {
		if words[i] == target {
			return i
		}
	}
	return -1
}

func canonicalAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if c := normalize.Canonical(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}
