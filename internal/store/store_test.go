package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONStore_Load_MissingFileIsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewJSONStore(filepath.Join(t.TempDir(), "none.json"), logging.NewFromCore(core))

	lib, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, lib.Len())
	assert.Equal(t, 1, logs.Len(), "expected a warning for the missing store")
}

func TestJSONStore_Load_AppliesDefaults(t *testing.T) {
	path := writeFile(t, `[
	  {"id": 3, "symptoms": ["insomnio"], "possible_cause": "estres", "strategies": ["higiene del sueno"], "risk": "alto"},
	  {"id": 1, "symptoms": [], "possible_cause": "", "strategies": []}
	]`)

	lib, found, err := NewJSONStore(path, nil).Load()
	require.NoError(t, err)
	assert.True(t, found)
	require.Equal(t, 2, lib.Len())

	cases := lib.Cases()
	assert.Equal(t, 3, cases[0].ID, "file order is preserved")
	assert.Equal(t, model.RiskHigh, cases[0].Risk)
	assert.Equal(t, model.OutcomeNotSpecified, cases[0].Outcome)
	assert.Equal(t, model.NoAdditionalRecommendation, cases[0].GeneralRecommendation)
	assert.NotNil(t, cases[0].Referrals)
	assert.NotNil(t, cases[1].SelfAssessments)
	assert.Equal(t, 4, lib.NextID())
}

func TestJSONStore_Load_LegacyKeys(t *testing.T) {
	path := writeFile(t, `[{"id_caso": 1, "sintomas": ["Tristeza"], "diagnostico": "duelo", "estrategias": ["acompanamiento"], "resultado": "mejoria", "riesgo": "moderado", "derivar_a": ["psicologia"]}]`)

	lib, _, err := NewJSONStore(path, nil).Load()
	require.NoError(t, err)

	c, ok := lib.Get(1)
	require.True(t, ok)
	assert.Equal(t, "duelo", c.PossibleCause)
	assert.Equal(t, "mejoria", c.Outcome)
	assert.Equal(t, model.RiskModerate, c.Risk)
	assert.Equal(t, []string{"psicologia"}, c.Referrals)
}

func TestJSONStore_Load_MalformedRecords(t *testing.T) {
	tests := map[string]string{
		"missing cause":      `[{"id": 1, "symptoms": ["a"], "strategies": []}]`,
		"missing symptoms":   `[{"id": 1, "possible_cause": "x", "strategies": []}]`,
		"missing id":         `[{"symptoms": ["a"], "possible_cause": "x", "strategies": []}]`,
		"non-positive id":    `[{"id": 0, "symptoms": ["a"], "possible_cause": "x", "strategies": []}]`,
		"duplicate id":       `[{"id": 1, "symptoms": ["a"], "possible_cause": "x", "strategies": []}, {"id": 1, "symptoms": ["b"], "possible_cause": "y", "strategies": []}]`,
		"invalid risk":       `[{"id": 1, "symptoms": ["a"], "possible_cause": "x", "strategies": [], "risk": "extreme"}]`,
		"not a list":         `{"id": 1}`,
		"wrong symptom type": `[{"id": 1, "symptoms": "a", "possible_cause": "x", "strategies": []}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewJSONStore(writeFile(t, content), nil).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestJSONStore_Load_DescribesMissingField(t *testing.T) {
	path := writeFile(t, `[{"id": 1, "symptoms": ["a"], "strategies": []}]`)

	_, _, err := NewJSONStore(path, nil).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "possible_cause")
}

func TestJSONStore_Append_PersistsWholeLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cases.json")
	s := NewJSONStore(path, nil)

	lib, _, err := s.Load()
	require.NoError(t, err)

	first, err := s.Append(lib, model.NewCase([]string{"insomnio"}, "estres", nil))
	require.NoError(t, err)
	second, err := s.Append(lib, model.NewCase([]string{"ansiedad"}, "estres", nil))
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)

	reloaded, found, err := NewJSONStore(path, nil).Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, lib.Cases(), reloaded.Cases())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not linger")
}

func TestJSONStore_Append_FailureLeavesLibraryUntouched(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// the parent "directory" is a regular file, so the write fails
	s := NewJSONStore(filepath.Join(blocker, "cases.json"), nil)
	lib := model.NewLibrary()

	_, err := s.Append(lib, model.NewCase([]string{"insomnio"}, "estres", nil))
	assert.Error(t, err)
	assert.Equal(t, 0, lib.Len())
}

func TestJSONStore_Feedback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	s := NewJSONStore(path, nil)
	lib := model.NewLibrary(model.Case{ID: 5, Symptoms: []string{"fatiga"}, PossibleCause: "anemia", Strategies: []string{}})

	c, err := s.Feedback(lib, Feedback{
		Symptoms:    []string{"Insomnio", "insomnio", " tristeza persistente "},
		Cause:       " episodio depresivo ",
		Strategies:  []string{"terapia", " "},
		Outcome:     "mejoria",
		Risk:        model.RiskModerate,
		Assessments: []string{"diario de sueno"},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, c.ID)
	assert.Equal(t, []string{"insomnio", "tristeza persistente"}, c.Symptoms)
	assert.Equal(t, "episodio depresivo", c.PossibleCause)
	assert.Equal(t, []string{"terapia"}, c.Strategies)
	assert.Equal(t, []string{"diario de sueno"}, c.SelfAssessments)
	assert.Equal(t, model.NoAdditionalRecommendation, c.GeneralRecommendation)
	assert.Equal(t, 2, lib.Len())

	_, err = s.Feedback(lib, Feedback{Cause: "x"})
	assert.Error(t, err)
	_, err = s.Feedback(lib, Feedback{Symptoms: []string{"x"}})
	assert.Error(t, err)
}
