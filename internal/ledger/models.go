package ledger

import "time"

// Outcome is the terminal state of a recorded run.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// Run is one rebuild pass.
type Run struct {
	RunID          string
	Phase          string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Outcome        Outcome
	DatesTotal     int
	DatesDone      int
	FilesSucceeded int
	FilesFailed    int
	Error          string
}

// Batch is one released calendar day within a run.
type Batch struct {
	ID         int64
	RunID      string
	Day        string
	BatchSize  int
	Succeeded  int
	Failed     int
	ReleasedAt time.Time
	ResolvedAt *time.Time
}
