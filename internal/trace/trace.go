// Package trace defines the events the reasoning pipeline emits at each
// stage. Presentation layers subscribe with a Hook or ignore them.
package trace

import (
	"context"

	"github.com/ppiankov/casewise/internal/logging"
)

// Stage names a point in the pipeline
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageResolve   Stage = "resolve"
	StageRetrieve  Stage = "retrieve"
	StageQuestion  Stage = "question"
	StageAnswer    Stage = "answer"
	StageOutcome   Stage = "outcome"
)

// Event is a single trace record. Only the fields relevant to the stage are set.
type Event struct {
	RequestID string   `json:"request_id,omitempty"`
	Stage     Stage    `json:"stage"`
	Input     string   `json:"input,omitempty"`
	Output    string   `json:"output,omitempty"`
	Tier      string   `json:"tier,omitempty"`
	Key       string   `json:"key,omitempty"`
	Score     float64  `json:"score"`
	Items     []string `json:"items,omitempty"`
	CaseID    int      `json:"case_id,omitempty"`
	Answer    *bool    `json:"answer,omitempty"`
}

// Hook receives trace events. Hooks run synchronously and must not block.
type Hook func(Event)

// Nop discards events
func Nop(Event) {}

// Multi fans an event out to every non-nil hook in order
func Multi(hooks ...Hook) Hook {
	live := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}
	switch len(live) {
	case 0:
		return Nop
	case 1:
		return live[0]
	}
	return func(e Event) {
		for _, h := range live {
			h(e)
		}
	}
}

// WithRequestID stamps every event with id before passing it on
func WithRequestID(h Hook, id string) Hook {
	if h == nil {
		return Nop
	}
	return func(e Event) {
		if e.RequestID == "" {
			e.RequestID = id
		}
		h(e)
	}
}

type requestIDKey struct{}

// NewContext returns a context carrying the request ID
func NewContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Emit stamps e with the request ID from ctx and passes it to h
func Emit(ctx context.Context, h Hook, e Event) {
	if h == nil {
		return
	}
	if e.RequestID == "" && ctx != nil {
		e.RequestID = RequestID(ctx)
	}
	h(e)
}

// LogHook writes events to logger at debug level
func LogHook(logger logging.Logger) Hook {
	log := logger.Named("trace")
	return func(e Event) {
		fields := []logging.Field{logging.String("stage", string(e.Stage))}
		if e.RequestID != "" {
			fields = append(fields, logging.String("request_id", e.RequestID))
		}
		if e.Input != "" {
			fields = append(fields, logging.String("input", e.Input))
		}
		if e.Output != "" {
			fields = append(fields, logging.String("output", e.Output))
		}
		if e.Tier != "" {
			fields = append(fields, logging.String("tier", e.Tier))
		}
		if e.Key != "" {
			fields = append(fields, logging.String("key", e.Key))
		}
		if len(e.Items) > 0 {
			fields = append(fields, logging.Strings("items", e.Items))
		}
		if e.CaseID != 0 {
			fields = append(fields, logging.Int("case_id", e.CaseID))
		}
		if e.Answer != nil {
			fields = append(fields, logging.Bool("answer", *e.Answer))
		}
		fields = append(fields, logging.Float64("score", e.Score))
		log.Debug("pipeline event", fields...)
	}
}

// Recorder collects events in memory
type Recorder struct {
	Events []Event
}

// Hook returns a hook appending to the recorder. Not safe for concurrent use.
func (r *Recorder) Hook() Hook {
	return func(e Event) {
		r.Events = append(r.Events, e)
	}
}

// Stage returns the recorded events of one stage
func (r *Recorder) Stage(s Stage) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Stage == s {
			out = append(out, e)
		}
	}
	return out
}
