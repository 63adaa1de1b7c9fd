// Package manifest persists a ledger of curation runs and per-session
// outcomes in SQLite.
//
// Each run row carries the run ID, directories, mode, and final status.
// Session rows are keyed by (subject, session_id, mode) and move from
// in_progress to completed or failed; a crash mid-session leaves the row
// in_progress so the next run with skip-completed re-curates it.
package manifest
