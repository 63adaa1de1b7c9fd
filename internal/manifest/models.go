package manifest

import "time"

// Status is the lifecycle state of a run or session row.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	// StatusPartial marks a run that finished with isolated session failures.
	StatusPartial Status = "partial"
)

// Run is one invocation of the curator.
type Run struct {
	ID                string
	BaseDir           string
	OutputDir         string
	Mode              string
	DryRun            bool
	Status            Status
	StartedAt         time.Time
	FinishedAt        *time.Time
	SessionsTotal     int
	SessionsCompleted int
	SessionsFailed    int
	SessionsSkipped   int
	ErrorMessage      string
}

// RunSummary carries the counters written when a run finishes.
type RunSummary struct {
	Status            Status
	SessionsTotal     int
	SessionsCompleted int
	SessionsFailed    int
	SessionsSkipped   int
	ErrorMessage      string
}

// SessionRecord is the latest outcome for a (subject, session, mode) triple.
type SessionRecord struct {
	Subject         string
	SessionID       string
	Mode            string
	RunID           string
	Status          Status
	FileCount       int
	OutputDir       string
	ContainerPath   string
	ContainerSHA256 string
	ErrorKind       string
	ErrorMessage    string
	UpdatedAt       time.Time
}
