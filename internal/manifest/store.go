package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the manifest database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("manifest path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a new in-progress run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is empty")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, base_dir, output_dir, mode, dry_run, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.BaseDir,
		run.OutputDir,
		run.Mode,
		boolToInt(run.DryRun),
		StatusInProgress,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, sessions_total = ?, sessions_completed = ?,
             sessions_failed = ?, sessions_skipped = ?, error_message = ?
         WHERE id = ?`,
		summary.Status,
		formatTime(time.Now()),
		summary.SessionsTotal,
		summary.SessionsCompleted,
		summary.SessionsFailed,
		summary.SessionsSkipped,
		nullableString(summary.ErrorMessage),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// MarkSession upserts the latest outcome for a session.
func (s *Store) MarkSession(ctx context.Context, rec SessionRecord) error {
	if rec.Subject == "" || rec.SessionID == "" {
		return errors.New("session record requires subject and session id")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            subject, session_id, mode, run_id, status, file_count, output_dir,
            container_path, container_sha256, error_kind, error_message, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(subject, session_id, mode) DO UPDATE SET
            run_id = excluded.run_id,
            status = excluded.status,
            file_count = excluded.file_count,
            output_dir = excluded.output_dir,
            container_path = excluded.container_path,
            container_sha256 = excluded.container_sha256,
            error_kind = excluded.error_kind,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		rec.Subject,
		rec.SessionID,
		rec.Mode,
		rec.RunID,
		rec.Status,
		rec.FileCount,
		nullableString(rec.OutputDir),
		nullableString(rec.ContainerPath),
		nullableString(rec.ContainerSHA256),
		nullableString(rec.ErrorKind),
		nullableString(rec.ErrorMessage),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("mark session %s/%s: %w", rec.Subject, rec.SessionID, err)
	}
	return nil
}

// IsCompleted reports whether the session finished successfully in mode.
func (s *Store) IsCompleted(ctx context.Context, subject, sessionID, mode string) (bool, error) {
	rec, err := s.Session(ctx, subject, sessionID, mode)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Status == StatusCompleted, nil
}

// Session returns the latest record for a session, or nil when none exists.
func (s *Store) Session(ctx context.Context, subject, sessionID, mode string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE subject = ? AND session_id = ? AND mode = ?`,
		subject, sessionID, mode,
	)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

// RunSessions lists the sessions last touched by runID.
func (s *Store) RunSessions(ctx context.Context, runID string) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE run_id = ? ORDER BY subject, session_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetRun fetches a run by ID, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}
