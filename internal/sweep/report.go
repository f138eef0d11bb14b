package sweep

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is what happened to one task during a sweep.
type Outcome string

// Possible outcomes
const (
	OutcomeDeleted           Outcome = "notified-and-deleted"
	OutcomeMarked            Outcome = "notified-and-marked"
	OutcomeNotifyFailed      Outcome = "notify-failed"
	OutcomeSkippedNoEmail    Outcome = "skipped-no-email"
	OutcomeDispositionFailed Outcome = "disposition-failed"
	OutcomePanicked          Outcome = "panicked"
)

// TaskOutcome records the outcome for one task.
type TaskOutcome struct {
	TaskID  uuid.UUID
	Outcome Outcome
}

// Report summarizes one sweep. It is not persisted.
type Report struct {
	StartedAt time.Time
	From      time.Time
	To        time.Time

	// Skipped is set when the sweep did not scan: another sweep was
	// running or the store was unreachable.
	Skipped    bool
	SkipReason string

	Outcomes []TaskOutcome
}

// Count returns how many tasks ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, to := range r.Outcomes {
		if to.Outcome == o {
			n++
		}
	}
	return n
}

// Notified returns how many notices were delivered.
func (r Report) Notified() int {
	return r.Count(OutcomeDeleted) + r.Count(OutcomeMarked) + r.Count(OutcomeDispositionFailed)
}
