package score

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the Ratcliff/Obershelp similarity of a and b: twice the
// number of characters in matching blocks over the total length. Two empty
// strings are identical (1.0). Autojunk is off so long fragments are not
// penalized for repeated letters.
func Ratio(a, b string) float64 {
	return difflib.NewMatcherWithJunk(runes(a), runes(b), false, nil).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// WordJaccard is the Jaccard similarity of the whitespace-separated word sets
func WordJaccard(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 0.0
	}

	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// Blend combines word overlap and character similarity for the semantic tier
func Blend(a, b string) float64 {
	return 0.7*WordJaccard(a, b) + 0.3*Ratio(a, b)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
