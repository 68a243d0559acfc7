package synonym

import (
	"testing"
)

func TestEnrich_AddsVariantsWithoutOverwriting(t *testing.T) {
	base := NewTable(map[string]string{
		"tengo miedo": "fobia social",
	})

	enriched, added := Enrich(base, []string{"miedo", "Tristeza persistente"})
	if added == 0 {
		t.Fatal("expected new phrases")
	}
	if enriched.Len() != base.Len()+added {
		t.Errorf("expected %d entries, got %d", base.Len()+added, enriched.Len())
	}

	if v, _ := enriched.Lookup("tengo miedo"); v != "fobia social" {
		t.Errorf("existing key overwritten: %q", v)
	}

	want := map[string]string{
		"siento miedo":                       "miedo",
		"temor":                              "miedo",
		"me cuesta miedo":                    "miedo",
		"tengo tristeza persistente":         "tristeza persistente",
		"desanimo persistente":               "tristeza persistente",
		"problemas con tristeza persistente": "tristeza persistente",
		"sintomas de tristeza persistente":   "tristeza persistente",
	}
	for k, v := range want {
		if got, ok := enriched.Lookup(k); !ok || got != v {
			t.Errorf("Lookup(%q): expected %q, got %q (found=%v)", k, v, got, ok)
		}
	}

	if base.Len() != 1 {
		t.Error("base table must not change")
	}
}

func TestVariants_SleepAndEnergy(t *testing.T) {
	sleep := Variants("dificultad para dormir")
	if !contains(sleep, "duermo mal") || !contains(sleep, "no descanso bien") {
		t.Errorf("expected sleep phrasings, got %q", sleep)
	}
	if contains(sleep, "me cuesta dificultad para dormir") {
		t.Error("sleep symptoms should not use the generic templates")
	}

	energy := Variants("falta de energía")
	if !contains(energy, "me siento sin fuerzas") || !contains(energy, "me falta energia") {
		t.Errorf("expected energy phrasings, got %q", energy)
	}
}

func TestVariants_Relational(t *testing.T) {
	got := Variants("miedo a hablar en publico")

	for _, want := range []string{
		"miedo hacia hablar en publico",
		"miedo ante hablar en publico",
		"temor a hablar en publico",
		"panico a hablar en publico",
	} {
		if !contains(got, want) {
			t.Errorf("expected %q in variants", want)
		}
	}
}

func TestVariants_Empty(t *testing.T) {
	if got := Variants("  "); len(got) != 0 {
		t.Errorf("expected no variants, got %q", got)
	}
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
