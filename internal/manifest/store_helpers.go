package manifest

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, base_dir, output_dir, mode, dry_run, status, started_at, finished_at, sessions_total, sessions_completed, sessions_failed, sessions_skipped, error_message"

const sessionColumns = "subject, session_id, mode, run_id, status, file_count, output_dir, container_path, container_sha256, error_kind, error_message, updated_at"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		dryRun      int64
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.BaseDir,
		&run.OutputDir,
		&run.Mode,
		&dryRun,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.SessionsTotal,
		&run.SessionsCompleted,
		&run.SessionsFailed,
		&run.SessionsSkipped,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	run.Status = Status(status)
	run.ErrorMessage = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanSession(row scanner) (*SessionRecord, error) {
	var (
		rec             SessionRecord
		status          string
		outputDir       sql.NullString
		containerPath   sql.NullString
		containerSHA256 sql.NullString
		errorKind       sql.NullString
		errorMsg        sql.NullString
		updatedRaw      string
	)
	if err := row.Scan(
		&rec.Subject,
		&rec.SessionID,
		&rec.Mode,
		&rec.RunID,
		&status,
		&rec.FileCount,
		&outputDir,
		&containerPath,
		&containerSHA256,
		&errorKind,
		&errorMsg,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.OutputDir = outputDir.String
	rec.ContainerPath = containerPath.String
	rec.ContainerSHA256 = containerSHA256.String
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMsg.String
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
