package core

import (
	"errors"
	"fmt"
)

// Outcome classifies how a recorded intervention resolved.
// The set is closed: writes carrying any other value are rejected at the
// store boundary instead of being stored as free-form text.
type Outcome string

const (
	// OutcomeTaskStarted means the user began the task after the intervention.
	OutcomeTaskStarted Outcome = "task_started"

	// OutcomeTaskProgress means the user made measurable progress.
	OutcomeTaskProgress Outcome = "task_progress"

	// OutcomeTaskCompleted means the task was finished.
	OutcomeTaskCompleted Outcome = "task_completed"

	// OutcomeReEngaged means the user returned to the task after drifting.
	OutcomeReEngaged Outcome = "re_engaged"

	// OutcomeDistracted means the user drifted away despite the intervention.
	OutcomeDistracted Outcome = "distracted"

	// OutcomeAbandoned means the task was dropped entirely.
	OutcomeAbandoned Outcome = "abandoned"

	// OutcomeUnknown means the resolution could not be determined.
	OutcomeUnknown Outcome = "unknown"
)

// ErrInvalidOutcome is returned when an outcome value is outside the known set.
var ErrInvalidOutcome = errors.New("core: invalid outcome")

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}

// IsValid reports whether the outcome is one of the defined constants.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeTaskStarted, OutcomeTaskProgress, OutcomeTaskCompleted,
		OutcomeReEngaged, OutcomeDistracted, OutcomeAbandoned, OutcomeUnknown:
		return true
	default:
		return false
	}
}

// Validate returns ErrInvalidOutcome (wrapped with the offending value) if the
// outcome is outside the known set.
func (o Outcome) Validate() error {
	if !o.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, o)
	}
	return nil
}

// Successful reports whether the outcome counts as a success for similarity
// retrieval. Only task_completed and re_engaged qualify.
func (o Outcome) Successful() bool {
	return o == OutcomeTaskCompleted || o == OutcomeReEngaged
}

// SuccessfulOutcomes returns the outcome set used by successful-only queries.
func SuccessfulOutcomes() []Outcome {
	return []Outcome{OutcomeTaskCompleted, OutcomeReEngaged}
}
