package seed

import (
	"fmt"
	"sort"
	"time"

	"payloadseed/internal/batch"
	"payloadseed/internal/services"
)

// Stage names used in reports and log fields.
const (
	StageMedia    = "media"
	StageEntities = "entities"
)

// StageReport summarises one stage.
type StageReport struct {
	Name         string         `json:"name"`
	Requested    int            `json:"requested"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Windows      int            `json:"windows"`
	PeakInFlight int            `json:"peak_in_flight"`
	Duration     time.Duration  `json:"duration_ns"`
	Failures     map[string]int `json:"failures,omitempty"`
	Skipped      bool           `json:"skipped,omitempty"`
	Interrupted  bool           `json:"interrupted,omitempty"`
}

func newStageReport(name string, requested int) StageReport {
	return StageReport{Name: name, Requested: requested, Failures: map[string]int{}}
}

// recordOutcomes folds outcomes into the report.
func recordOutcomes[T any](r *StageReport, outcomes []batch.Outcome[T]) {
	for _, o := range outcomes {
		if o.OK() {
			r.Succeeded++
			continue
		}
		r.Failed++
		r.Failures[services.Kind(o.Err)]++
	}
}

// FailureKinds returns the failure classifications in stable order.
func (r StageReport) FailureKinds() []string {
	kinds := make([]string, 0, len(r.Failures))
	for k := range r.Failures {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Report describes a finished pipeline run.
type Report struct {
	RunID           string      `json:"run_id"`
	Seed            uint64      `json:"seed"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
	UserCreated     bool        `json:"user_created"`
	UserError       string      `json:"user_error,omitempty"`
	Media           StageReport `json:"media"`
	Entities        StageReport `json:"entities"`
	EntitiesAllowed bool        `json:"entities_allowed"`
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns the one-line run summary.
func (r *Report) Summary() string {
	if r.Media.Interrupted {
		return fmt.Sprintf("Interrupted after creating %d media items; centres not started.", r.Media.Succeeded)
	}
	if r.Entities.Interrupted {
		return fmt.Sprintf("Interrupted after creating %d media items and %d centres.", r.Media.Succeeded, r.Entities.Succeeded)
	}
	if !r.EntitiesAllowed {
		return fmt.Sprintf("Created %d media items; centres skipped because no media was created.", r.Media.Succeeded)
	}
	return fmt.Sprintf("Created %d media items and %d centres.", r.Media.Succeeded, r.Entities.Succeeded)
}
