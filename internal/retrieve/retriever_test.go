package retrieve

import (
	"testing"

	"github.com/ppiankov/casewise/internal/model"
)

func testLibrary() *model.Library {
	lib := model.NewLibrary()
	lib.Append(model.NewCase([]string{"insomnio", "ansiedad"}, "estres laboral", []string{"higiene del sueno"}))
	lib.Append(model.NewCase([]string{"insomnio", "tristeza persistente"}, "episodio depresivo", []string{"terapia cognitiva"}))
	lib.Append(model.NewCase([]string{"aislamiento social"}, "duelo", []string{"grupo de apoyo"}))
	lib.Append(model.NewCase([]string{"insomnio", "ansiedad"}, "estres academico", []string{"tecnicas de relajacion"}))
	return lib
}

func TestRetriever_Retrieve_SortsDescending(t *testing.T) {
	r := New(model.DefaultThresholds())

	ranking := r.Retrieve([]string{"insomnio", "tristeza persistente"}, testLibrary())

	if len(ranking) != 4 {
		t.Fatalf("expected every case ranked, got %d", len(ranking))
	}
	if ranking[0].Case.ID != 2 || ranking[0].Score != 1.0 {
		t.Errorf("expected case 2 with score 1.0 first, got case %d with %f", ranking[0].Case.ID, ranking[0].Score)
	}
	for i := 1; i < len(ranking); i++ {
		if ranking[i].Score > ranking[i-1].Score {
			t.Errorf("ranking not descending at %d", i)
		}
	}
}

func TestRetriever_Retrieve_TiesKeepLibraryOrder(t *testing.T) {
	r := New(model.DefaultThresholds())
	lib := testLibrary()

	first := r.Retrieve([]string{"insomnio", "ansiedad"}, lib)
	second := r.Retrieve([]string{"insomnio", "ansiedad"}, lib)

	if first[0].Case.ID != 1 || first[1].Case.ID != 4 {
		t.Errorf("expected tied cases 1 then 4, got %d then %d", first[0].Case.ID, first[1].Case.ID)
	}
	for i := range first {
		if first[i].Case.ID != second[i].Case.ID {
			t.Errorf("ranking not stable at %d", i)
		}
	}
}

func TestRetriever_Retrieve_EmptyLibrary(t *testing.T) {
	r := New(model.DefaultThresholds())

	ranking := r.Retrieve([]string{"insomnio"}, model.NewLibrary())
	if len(ranking) != 0 {
		t.Errorf("expected empty ranking, got %d", len(ranking))
	}
	if _, ok := r.Best(ranking); ok {
		t.Error("expected no confident match for an empty library")
	}
	if got := r.Retrieve([]string{"insomnio"}, nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil ranking for nil library, got %v", got)
	}
}

func TestRetriever_Best_AppliesAcceptance(t *testing.T) {
	r := New(model.DefaultThresholds())
	lib := testLibrary()

	// one of three symptoms shared: 1/3 < 0.6
	ranking := r.Retrieve([]string{"aislamiento social", "culpa", "irritabilidad"}, lib)
	if ranking[0].Case.ID != 3 {
		t.Fatalf("expected case 3 on top, got %d", ranking[0].Case.ID)
	}
	if _, ok := r.Best(ranking); ok {
		t.Error("expected low score to be rejected")
	}

	ranking = r.Retrieve([]string{"aislamiento social"}, lib)
	best, ok := r.Best(ranking)
	if !ok || best.Case.ID != 3 {
		t.Errorf("expected case 3 to be accepted, got %+v (%v)", best, ok)
	}
}

func TestRetriever_Containing(t *testing.T) {
	r := New(model.DefaultThresholds())

	got := r.Containing("insomnio", testLibrary())
	if len(got) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 4 {
		t.Errorf("expected library order 1,2,4, got %d,%d,%d", got[0].ID, got[1].ID, got[2].ID)
	}

	if got := r.Containing("fobia", testLibrary()); len(got) != 0 {
		t.Errorf("expected no cases, got %d", len(got))
	}
}

func TestRetriever_Breakdown(t *testing.T) {
	r := New(model.DefaultThresholds())
	ranking := r.Retrieve([]string{"insomnio"}, testLibrary())

	signals := r.Breakdown([]string{"insomnio"}, ranking[0])
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].Type != model.SignalFuzzyJaccard || signals[1].Type != model.SignalAcceptance {
		t.Errorf("unexpected signal types: %s, %s", signals[0].Type, signals[1].Type)
	}
	if signals[1].Data["accepted"] != false {
		t.Errorf("expected 0.5 to be below acceptance, got %v", signals[1].Data)
	}
}
