// Package store persists the case library as a single JSON file that is
// rewritten wholesale on every append.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/model"
)

// ErrMalformedRecord is returned when a stored case is missing a required
// field or carries an invalid value
var ErrMalformedRecord = errors.New("malformed case record")

// record is the on-disk shape. Pointers distinguish a missing field from an
// empty one. The legacy Spanish keys are accepted on load.
type record struct {
	ID                    *int      `json:"id" validate:"required,gt=0"`
	Symptoms              *[]string `json:"symptoms" validate:"required"`
	PossibleCause         *string   `json:"possible_cause" validate:"required"`
	Strategies            *[]string `json:"strategies" validate:"required"`
	Outcome               string    `json:"outcome"`
	SelfAssessments       []string  `json:"suggested_self_assessments"`
	Risk                  string    `json:"risk"`
	Referrals             []string  `json:"referrals"`
	GeneralRecommendation string    `json:"general_recommendation"`

	LegacyID          *int      `json:"id_caso,omitempty" validate:"-"`
	LegacySymptoms    *[]string `json:"sintomas,omitempty" validate:"-"`
	LegacyCause       *string   `json:"diagnostico,omitempty" validate:"-"`
	LegacyStrategies  *[]string `json:"estrategias,omitempty" validate:"-"`
	LegacyOutcome     *string   `json:"resultado,omitempty" validate:"-"`
	LegacyAssessments []string  `json:"evaluaciones,omitempty" validate:"-"`
	LegacyRisk        string    `json:"riesgo,omitempty" validate:"-"`
	LegacyReferrals   []string  `json:"derivar_a,omitempty" validate:"-"`
}

// adoptLegacy fills the canonical fields from legacy keys when absent
func (r *record) adoptLegacy() {
	if r.ID == nil {
		r.ID = r.LegacyID
	}
	if r.Symptoms == nil {
		r.Symptoms = r.LegacySymptoms
	}
	if r.PossibleCause == nil {
		r.PossibleCause = r.LegacyCause
	}
	if r.Strategies == nil {
		r.Strategies = r.LegacyStrategies
	}
	if r.Outcome == "" && r.LegacyOutcome != nil {
		r.Outcome = *r.LegacyOutcome
	}
	if r.SelfAssessments == nil {
		r.SelfAssessments = r.LegacyAssessments
	}
	if r.Risk == "" {
		r.Risk = r.LegacyRisk
	}
	if r.Referrals == nil {
		r.Referrals = r.LegacyReferrals
	}
}

func (r *record) toCase() (model.Case, error) {
	risk, err := model.ParseRisk(r.Risk)
	if err != nil {
		return model.Case{}, err
	}
	return model.Case{
		ID:                    *r.ID,
		Symptoms:              *r.Symptoms,
		PossibleCause:         *r.PossibleCause,
		Strategies:            *r.Strategies,
		Outcome:               r.Outcome,
		SelfAssessments:       r.SelfAssessments,
		Risk:                  risk,
		Referrals:             r.Referrals,
		GeneralRecommendation: r.GeneralRecommendation,
	}.WithDefaults(), nil
}

// JSONStore loads and saves the library file
type JSONStore struct {
	path     string
	logger   logging.Logger
	validate *validator.Validate
}

// NewJSONStore creates a store backed by path
func NewJSONStore(path string, logger logging.Logger) *JSONStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &JSONStore{
		path:     path,
		logger:   logger.Named("store"),
		validate: v,
	}
}

// Path returns the library file path
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the library. A missing file is not an error: it yields an
// empty library with found=false. Malformed records fail the whole load.
func (s *JSONStore) Load() (*model.Library, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("case store not found, starting with an empty library",
			logging.String("path", s.path))
		return model.NewLibrary(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read case store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.NewLibrary(), true, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, s.path, err)
	}

	cases := make([]model.Case, 0, len(records))
	seen := make(map[int]int, len(records))
	for i := range records {
		r := &records[i]
		r.adoptLegacy()

		if err := s.validate.Struct(r); err != nil {
			return nil, true, fmt.Errorf("%w: record %d: %s", ErrMalformedRecord, i+1, describe(err))
		}
		if prev, dup := seen[*r.ID]; dup {
			return nil, true, fmt.Errorf("%w: record %d: id %d already used by record %d",
				ErrMalformedRecord, i+1, *r.ID, prev)
		}
		seen[*r.ID] = i + 1

		c, err := r.toCase()
		if err != nil {
			return nil, true, fmt.Errorf("%w: record %d: %v", ErrMalformedRecord, i+1, err)
		}
		cases = append(cases, c)
	}

	s.logger.Debug("case store loaded",
		logging.String("path", s.path),
		logging.Int("cases", len(cases)))
	return model.NewLibrary(cases...), true, nil
}

// Save rewrites the whole library atomically
func (s *JSONStore) Save(lib *model.Library) error {
	return s.write(lib.Cases())
}

// Append assigns the next ID to c, persists the full library including it,
// and only then adds it to lib
func (s *JSONStore) Append(lib *model.Library, c model.Case) (model.Case, error) {
	c = c.WithDefaults()
	c.ID = lib.NextID()

	if err := s.write(append(lib.Cases(), c)); err != nil {
		return model.Case{}, err
	}
	stored := lib.Append(c)

	s.logger.Info("case appended",
		logging.Int("id", stored.ID),
		logging.Int("cases", lib.Len()))
	return stored, nil
}

func (s *JSONStore) write(cases []model.Case) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cases); err != nil {
		return fmt.Errorf("encode case store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create case store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp case store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename case store: %w", err)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing required field %s", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

