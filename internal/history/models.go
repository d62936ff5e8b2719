package history

import "time"

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Kind values recorded by the workflow.
const (
	KindSplit = "split"
	KindMerge = "merge"
)

// Job is one ledger row.
type Job struct {
	ID         string
	Kind       string
	Source     string
	Output     string
	Status     Status
	Succeeded  int
	Failed     int
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status != StatusRunning
}

// Elapsed is the run time, or zero while running.
func (j Job) Elapsed() time.Duration {
	if j.FinishedAt.IsZero() || j.StartedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// Outcome is the terminal update applied by Finish.
type Outcome struct {
	Status    Status
	Output    string
	Succeeded int
	Failed    int
	Message   string
}

// OutcomeFor derives a status from unit counts.
func OutcomeFor(succeeded, failed int) Status {
	switch {
	case failed == 0:
		return StatusSucceeded
	case succeeded == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
