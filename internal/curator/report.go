package curator

import (
	"time"

	"curator/internal/preflight"
)

// Outcome is the result of one session within a run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	// OutcomePlanned is reported for every session of a dry run.
	OutcomePlanned Outcome = "planned"
)

// SessionResult describes what happened to one session.
type SessionResult struct {
	Subject   string
	SessionID string
	Outcome   Outcome
	// Dir is the canonical session directory under the output root.
	Dir   string
	Files int
	// Bytes is the total copied into Dir.
	Bytes        int64
	Unclassified int
	// Roles counts files per stream role.
	Roles           map[string]int
	TimestampLog    string
	TimestampRows   int
	ContainerPath   string
	ContainerSHA256 string
	Err             error
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Mode       Mode
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	// Subjects lists the subject IDs that were discovered.
	Subjects []string
	// MissingSubjects lists allow-listed subjects with no directory.
	MissingSubjects []string
	// Unmatched lists files that carry no date/time token.
	Unmatched []string
	// Excluded counts files dropped by the start-date bound.
	Excluded int
	Sessions []SessionResult
	// Preflight holds the path and free-space checks run before copying.
	Preflight []preflight.Result
	// RequiredBytes is the total size of every planned session file.
	RequiredBytes int64
}

// Count returns how many sessions ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, s := range r.Sessions {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// Failures returns the failed sessions in processing order.
func (r Report) Failures() []SessionResult {
	var out []SessionResult
	for _, s := range r.Sessions {
		if s.Outcome == OutcomeFailed {
			out = append(out, s)
		}
	}
	return out
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
