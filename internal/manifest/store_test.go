package manifest_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/manifest"
	"curator/internal/testsupport"
)

func TestOpenAppliesMigrationsIdempotently(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := cfg.Paths.ManifestPath

	first, err := manifest.Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := manifest.Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()
	if second.Path() != path {
		t.Fatalf("Path() = %q, want %q", second.Path(), path)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := manifest.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	run := manifest.Run{
		ID:        "run-1",
		BaseDir:   "/data/raw",
		OutputDir: "/data/curated",
		Mode:      "container",
		StartedAt: started,
	}
	if err := store.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.Status != manifest.StatusInProgress || !got.StartedAt.Equal(started) {
		t.Fatalf("unexpected run after begin: %#v", got)
	}
	if got.FinishedAt != nil {
		t.Fatal("in-progress run should not have finished_at")
	}

	summary := manifest.RunSummary{
		Status:            manifest.StatusPartial,
		SessionsTotal:     3,
		SessionsCompleted: 2,
		SessionsFailed:    1,
		ErrorMessage:      "1 session failed",
	}
	if err := store.FinishRun(ctx, "run-1", summary); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	got, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != manifest.StatusPartial || got.SessionsCompleted != 2 || got.SessionsFailed != 1 {
		t.Fatalf("unexpected run after finish: %#v", got)
	}
	if got.FinishedAt == nil || got.ErrorMessage != "1 session failed" {
		t.Fatalf("expected finish stamp and message, got %#v", got)
	}

	if err := store.FinishRun(ctx, "missing", summary); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
	missing, err := store.GetRun(ctx, "missing")
	if err != nil || missing != nil {
		t.Fatalf("expected nil run for unknown id, got %#v, %v", missing, err)
	}
}

func TestMarkSessionUpsertsAndIsCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		if err := store.BeginRun(ctx, manifest.Run{ID: id, Mode: "flat"}); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}

	rec := manifest.SessionRecord{
		Subject:   "Mouse12",
		SessionID: "20230314T101500",
		Mode:      "flat",
		RunID:     "run-a",
		Status:    manifest.StatusInProgress,
		FileCount: 3,
	}
	if err := store.MarkSession(ctx, rec); err != nil {
		t.Fatalf("MarkSession: %v", err)
	}
	done, err := store.IsCompleted(ctx, "Mouse12", "20230314T101500", "flat")
	if err != nil || done {
		t.Fatalf("in-progress session reported completed: %v, %v", done, err)
	}

	rec.RunID = "run-b"
	rec.Status = manifest.StatusCompleted
	rec.OutputDir = filepath.Join("out", "sub-Mouse12", "ses-20230314T101500")
	if err := store.MarkSession(ctx, rec); err != nil {
		t.Fatalf("MarkSession: %v", err)
	}
	done, err = store.IsCompleted(ctx, "Mouse12", "20230314T101500", "flat")
	if err != nil || !done {
		t.Fatalf("expected completed session: %v, %v", done, err)
	}
	other, err := store.IsCompleted(ctx, "Mouse12", "20230314T101500", "container")
	if err != nil || other {
		t.Fatalf("completion must be per mode: %v, %v", other, err)
	}

	sessions, err := store.RunSessions(ctx, "run-b")
	if err != nil {
		t.Fatalf("RunSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].OutputDir != rec.OutputDir {
		t.Fatalf("unexpected run sessions: %#v", sessions)
	}
	stale, err := store.RunSessions(ctx, "run-a")
	if err != nil || len(stale) != 0 {
		t.Fatalf("upsert should move the row to the latest run: %#v, %v", stale, err)
	}
}

func TestMarkSessionRequiresKnownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)

	err := store.MarkSession(context.Background(), manifest.SessionRecord{
		Subject:   "Mouse1",
		SessionID: "20230101T000000",
		Mode:      "flat",
		RunID:     "ghost",
		Status:    manifest.StatusCompleted,
	})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown run")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	starts := map[string]time.Time{
		"old":    base,
		"middle": base.Add(500 * time.Millisecond),
		"new":    base.Add(time.Hour),
	}
	for id, started := range starts {
		if err := store.BeginRun(ctx, manifest.Run{ID: id, Mode: "flat", StartedAt: started}); err != nil {
			t.Fatalf("BeginRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	want := []string{"new", "middle", "old"}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("runs[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}

	limited, err := store.ListRuns(ctx, 1)
	if err != nil || len(limited) != 1 || limited[0].ID != "new" {
		t.Fatalf("unexpected limited runs: %#v, %v", limited, err)
	}
}
