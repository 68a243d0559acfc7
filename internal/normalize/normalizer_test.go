package normalize

import (
	"reflect"
	"testing"
)

func TestNormalizer_Normalize_SplitsSentenceFragments(t *testing.T) {
	n := New(nil)

	got := n.Normalize("No puedo dormir, me siento TRISTE; tengo   mucho sueño.")
	want := []string{"no puedo dormir", "me siento triste", "tengo mucho sueno"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizer_Normalize_DropsOnlyWholeStopphrases(t *testing.T) {
	n := New([]string{"tengo", "a veces", "estoy bien"})

	got := n.Normalize("tengo, a veces, tengo miedo a veces, Estoy bien")
	want := []string{"tengo miedo a veces"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizer_Normalize_EmptyInput(t *testing.T) {
	n := New(nil)

	for _, input := range []string{"", "   ", ",,;.", " . , "} {
		if got := n.Normalize(input); len(got) != 0 {
			t.Errorf("expected no fragments for %q, got %q", input, got)
		}
	}
}

func TestCanonical_StripsAccents(t *testing.T) {
	cases := map[string]string{
		"Pérdida de Apetito": "perdida de apetito",
		"  ansiedad\t\tsocial ": "ansiedad social",
		"Pánico":             "panico",
		"niño":               "nino",
		"ÜBER":               "uber",
	}

	for in, want := range cases {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	inputs := []string{
		"Me siento   TRISTE",
		"pérdida de apetito",
		"  ",
		"ideas suicidas",
		"Ánimo bajo\n por las mañanas",
	}

	n := New(nil)
	for _, in := range inputs {
		once := Canonical(in)
		if twice := Canonical(once); twice != once {
			t.Errorf("Canonical not idempotent for %q: %q then %q", in, once, twice)
		}

		if once == "" {
			continue
		}
		renorm := n.Normalize(once)
		if len(renorm) != 1 || renorm[0] != once {
			t.Errorf("Normalize(Canonical(%q)) expected [%q], got %q", in, once, renorm)
		}
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"insomnio", "tristeza", "insomnio", "fatiga", "tristeza"})
	want := []string{"insomnio", "tristeza", "fatiga"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
