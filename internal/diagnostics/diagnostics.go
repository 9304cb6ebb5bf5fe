// Package diagnostics is the known-defect channel: site bugs that the suite
// tolerates are recorded here instead of failing the scenario, so reports can
// tell a documented defect apart from a clean pass.
package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies a known defect.
type Kind string

const (
	// KindValidityNotEnforced: a field expected to be invalid reports valid.
	KindValidityNotEnforced Kind = "validity-not-enforced"
	// KindTermsCheckboxDisabled: the terms checkbox cannot be toggled.
	KindTermsCheckboxDisabled Kind = "terms-checkbox-disabled"
)

// Kinds lists every defect kind.
var Kinds = []Kind{KindValidityNotEnforced, KindTermsCheckboxDisabled}

// Describe returns a one-line explanation of the kind.
func (k Kind) Describe() string {
	switch k {
	case KindValidityNotEnforced:
		return "The form accepts a value its validation should reject."
	case KindTermsCheckboxDisabled:
		return "The terms and conditions checkbox is disabled and cannot be accepted."
	}
	return string(k)
}

// Defect is one observed occurrence.
type Defect struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Field    string    `json:"field,omitempty"`
	Page     string    `json:"page,omitempty"`
	Scenario string    `json:"scenario,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

type scenarioKey struct{}

// WithScenario attaches the running scenario's name to ctx.
func WithScenario(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, scenarioKey{}, name)
}

// ScenarioFrom returns the scenario name attached by WithScenario.
func ScenarioFrom(ctx context.Context) string {
	name, _ := ctx.Value(scenarioKey{}).(string)
	return name
}

// Recorder collects defects. It is safe for concurrent use.
type Recorder struct {
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	defects []Defect
}

// NewRecorder creates an empty recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{
		logger: logger.Named("defects"),
		now:    time.Now,
	}
}

// Record stores a defect and logs it at warn level.
func (r *Recorder) Record(ctx context.Context, kind Kind, fieldName, page, message string) Defect {
	d := Defect{
		ID:       uuid.NewString(),
		Kind:     kind,
		Field:    fieldName,
		Page:     page,
		Scenario: ScenarioFrom(ctx),
		Message:  message,
		At:       r.now().UTC(),
	}

	r.mu.Lock()
	r.defects = append(r.defects, d)
	r.mu.Unlock()

	r.logger.Warn("Known site defect: "+message,
		zap.String("kind", string(kind)),
		zap.String("field", fieldName),
		zap.String("page", page),
		zap.String("scenario", d.Scenario),
		zap.String("defect_id", d.ID),
	)
	return d
}

// Defects returns a copy of everything recorded, oldest first.
func (r *Recorder) Defects() []Defect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Defect(nil), r.defects...)
}

// Len returns the number of recorded defects.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.defects)
}
