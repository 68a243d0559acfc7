// Package metrics counts pipeline activity on a private prometheus registry.
// A CLI run dumps the registry in text exposition format on request.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/casewise/internal/trace"
)

// Metrics holds the casewise collectors
type Metrics struct {
	registry *prometheus.Registry

	// resolutionsTotal counts fragment resolutions.
	// Labels: tier (exact, fuzzy, semantic, passthrough)
	resolutionsTotal *prometheus.CounterVec

	// outcomesTotal counts terminal pipeline outcomes.
	// Labels: kind (matched, ambiguous, no_symptoms, no_match)
	outcomesTotal *prometheus.CounterVec

	// answersTotal counts disambiguation answers.
	// Labels: answer (yes, no)
	answersTotal *prometheus.CounterVec

	topScore prometheus.Histogram
}

// New creates metrics registered on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resolutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casewise",
			Name:      "resolutions_total",
			Help:      "Fragment resolutions by resolver tier",
		}, []string{"tier"}),
		outcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casewise",
			Name:      "outcomes_total",
			Help:      "Pipeline outcomes by kind",
		}, []string{"kind"}),
		answersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casewise",
			Name:      "disambiguation_answers_total",
			Help:      "Disambiguation answers by value",
		}, []string{"answer"}),
		topScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "casewise",
			Name:      "top_score",
			Help:      "Similarity of the best ranked case per query",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
	}
}

// Registry exposes the underlying gatherer
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Hook converts trace events into metric updates
func (m *Metrics) Hook() trace.Hook {
	return func(e trace.Event) {
		switch e.Stage {
		case trace.StageResolve:
			m.resolutionsTotal.WithLabelValues(e.Tier).Inc()
		case trace.StageRetrieve:
			if len(e.Items) > 0 {
				m.topScore.Observe(e.Score)
			}
		case trace.StageAnswer:
			if e.Answer != nil {
				m.answersTotal.WithLabelValues(yesNo(*e.Answer)).Inc()
			}
		case trace.StageOutcome:
			m.outcomesTotal.WithLabelValues(e.Output).Inc()
		}
	}
}

// WriteFile writes the registry in text exposition format
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

