package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/curator"
	"curator/internal/manifest"
	"curator/internal/pipeline"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type sessionView struct {
	Subject         string         `json:"subject"`
	SessionID       string         `json:"session_id,omitempty"`
	Outcome         string         `json:"outcome"`
	Dir             string         `json:"dir"`
	Files           int            `json:"files"`
	Bytes           int64          `json:"bytes"`
	Unclassified    int            `json:"unclassified"`
	Roles           map[string]int `json:"roles,omitempty"`
	TimestampLog    string         `json:"timestamp_log,omitempty"`
	TimestampRows   int            `json:"timestamp_rows"`
	ContainerPath   string         `json:"container_path,omitempty"`
	ContainerSHA256 string         `json:"container_sha256,omitempty"`
	ErrorKind       string         `json:"error_kind,omitempty"`
	Error           string         `json:"error,omitempty"`
}

type reportView struct {
	RunID           string        `json:"run_id"`
	Mode            string        `json:"mode"`
	DryRun          bool          `json:"dry_run"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Subjects        []string      `json:"subjects"`
	MissingSubjects []string      `json:"missing_subjects,omitempty"`
	Unmatched       []string      `json:"unmatched,omitempty"`
	Excluded        int           `json:"excluded_files"`
	RequiredBytes   int64         `json:"required_bytes"`
	Preflight       []checkView   `json:"preflight,omitempty"`
	Sessions        []sessionView `json:"sessions"`
}

type checkView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newReportView(r curator.Report) reportView {
	view := reportView{
		RunID:           r.RunID,
		Mode:            string(r.Mode),
		DryRun:          r.DryRun,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Subjects:        r.Subjects,
		MissingSubjects: r.MissingSubjects,
		Unmatched:       r.Unmatched,
		Excluded:        r.Excluded,
		RequiredBytes:   r.RequiredBytes,
		Sessions:        make([]sessionView, 0, len(r.Sessions)),
	}
	for _, check := range r.Preflight {
		view.Preflight = append(view.Preflight, checkView{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
	}
	if view.Subjects == nil {
		view.Subjects = []string{}
	}
	for _, s := range r.Sessions {
		sv := sessionView{
			Subject:         s.Subject,
			SessionID:       s.SessionID,
			Outcome:         string(s.Outcome),
			Dir:             s.Dir,
			Files:           s.Files,
			Bytes:           s.Bytes,
			Unclassified:    s.Unclassified,
			Roles:           s.Roles,
			TimestampLog:    s.TimestampLog,
			TimestampRows:   s.TimestampRows,
			ContainerPath:   s.ContainerPath,
			ContainerSHA256: s.ContainerSHA256,
		}
		if s.Err != nil {
			sv.ErrorKind = pipeline.Kind(s.Err)
			sv.Error = s.Err.Error()
		}
		view.Sessions = append(view.Sessions, sv)
	}
	return view
}

type runView struct {
	ID                string     `json:"id"`
	BaseDir           string     `json:"base_dir"`
	OutputDir         string     `json:"output_dir"`
	Mode              string     `json:"mode"`
	Status            string     `json:"status"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	SessionsTotal     int        `json:"sessions_total"`
	SessionsCompleted int        `json:"sessions_completed"`
	SessionsFailed    int        `json:"sessions_failed"`
	SessionsSkipped   int        `json:"sessions_skipped"`
	Error             string     `json:"error,omitempty"`
}

func newRunView(r manifest.Run) runView {
	return runView{
		ID:                r.ID,
		BaseDir:           r.BaseDir,
		OutputDir:         r.OutputDir,
		Mode:              r.Mode,
		Status:            string(r.Status),
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		SessionsTotal:     r.SessionsTotal,
		SessionsCompleted: r.SessionsCompleted,
		SessionsFailed:    r.SessionsFailed,
		SessionsSkipped:   r.SessionsSkipped,
		Error:             r.ErrorMessage,
	}
}
