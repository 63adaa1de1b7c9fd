package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/container"
	"curator/internal/pipeline"
	"curator/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
	rawDir     string
	outDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\nmanifest_path = %q\n\n[logging]\nlevel = \"error\"\n",
		filepath.Join(base, "logs"),
		filepath.Join(base, "state", "manifest.db"),
	)
	testsupport.WriteText(t, configPath, content)

	raw := filepath.Join(base, "raw")
	dir := filepath.Join(raw, "Mouse12")
	testsupport.WriteText(t, filepath.Join(dir, "2024-01-05T10_30_00_miniscope.avi"), "miniscope frames")
	testsupport.WriteText(t, filepath.Join(dir, "2024-01-05T10_30_00_behaviorHome.avi"), "home cage frames")
	testsupport.WriteTimestampLog(t, filepath.Join(dir, "2024-01-05T10_30_00_ts.csv"), "0", "0.04", "0.08")

	return &cliTestEnv{
		configPath: configPath,
		baseDir:    base,
		rawDir:     raw,
		outDir:     filepath.Join(base, "curated"),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func TestCurateFlatThenHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{env.rawDir, env.outDir}, env.configPath)
	if err != nil {
		t.Fatalf("curate: %v", err)
	}
	requireContains(t, out, "20240105T103000")
	requireContains(t, out, "Completed")

	copied := filepath.Join(env.outDir, "sub-Mouse12", "ses-20240105T103000", "2024-01-05T10_30_00_miniscope.avi")
	if got := testsupport.ReadText(t, copied); got != "miniscope frames" {
		t.Fatalf("unexpected copy content %q", got)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Status != "completed" || runs[0].SessionsCompleted != 1 || runs[0].Mode != "flat" {
		t.Fatalf("unexpected history %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, runs[0].ID[:8])
}

func TestCurateSaveNWBJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--save_nwb", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("curate: %v", err)
	}
	var report reportView
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Mode != "container" || len(report.Sessions) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	path := report.Sessions[0].ContainerPath
	if path != filepath.Join(env.outDir, "sub-Mouse12", "ses-20240105T103000", "sub-Mouse12-ses-20240105T103000.nwb.json") {
		t.Fatalf("unexpected container path %q", path)
	}
	doc, err := container.Read(path)
	if err != nil {
		t.Fatalf("container.Read: %v", err)
	}
	if len(doc.Acquisition) != 2 || len(doc.Timestamps.Data) != 3 {
		t.Fatalf("unexpected container %+v", doc)
	}
}

func TestCurateKeepGoingReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, filepath.Join(env.rawDir, "Mouse12", "2024-01-04T08_00_00_miniscope.avi"), "orphan")

	out, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--save_nwb", "--keep_going", "--json"}, env.configPath)
	if !errors.Is(err, pipeline.ErrMissingTimestamp) {
		t.Fatalf("expected missing timestamp error, got %v", err)
	}
	var report reportView
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected both sessions reported, got %+v", report.Sessions)
	}
	if report.Sessions[0].ErrorKind != "missing_timestamp" || report.Sessions[1].Outcome != "completed" {
		t.Fatalf("unexpected outcomes %+v", report.Sessions)
	}
}

func TestCurateDryRunAndStartDate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--dry_run", "--start_date", "2024-01-04"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "dry run")
	requireContains(t, out, "planned")
	if _, err := os.Stat(env.outDir); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote output: %v", err)
	}

	if _, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--start_date", "Jan 5"}, env.configPath); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error for bad date, got %v", err)
	}
}

func TestCurateRequiresTwoArgs(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{env.rawDir}, env.configPath); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestSessionsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, filepath.Join(env.rawDir, "Mouse12", "readme.txt"), "notes")

	out, _, err := runCLI(t, []string{"sessions", env.rawDir}, env.configPath)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	requireContains(t, out, "20240105T103000")
	requireContains(t, out, "Behavior Home")
	requireContains(t, out, "2024-01-05T10_30_00_ts.csv")
	requireContains(t, out, "Unmatched files")

	out, _, err = runCLI(t, []string{"sessions", env.rawDir, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions json: %v", err)
	}
	var listings []sessionListing
	if err := json.Unmarshal([]byte(out), &listings); err != nil {
		t.Fatalf("decode sessions: %v\n%s", err, out)
	}
	if len(listings) != 1 || listings[0].Roles["imaging"] != 1 || listings[0].Roles["timestamp_log"] != 1 {
		t.Fatalf("unexpected listings %+v", listings)
	}
}

func TestConfigInitAndPath(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "curator.toml")
	out, _, err := runCLI(t, []string{"config", "init", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "path"}, env.configPath)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, env.configPath)

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestRenderTableKeepsHeaderCase(t *testing.T) {
	out := renderTable([]string{"Subject", "Behavior Home"}, [][]string{{"Mouse12"}}, nil)
	requireContains(t, out, "Behavior Home")
	if strings.Contains(out, "BEHAVIOR HOME") {
		t.Fatalf("header was upper cased:\n%s", out)
	}
	requireContains(t, out, "-")
}

func TestCurateAnimalsFlagForms(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, args := range [][]string{
		{"--animals", "Mouse12,Mouse7"},
		{"--animals", "Mouse7", "--animals", "Mouse12"},
	} {
		cli := append([]string{env.rawDir, env.outDir, "--dry_run", "--json"}, args...)
		out, _, err := runCLI(t, cli, env.configPath)
		if err != nil {
			t.Fatalf("curate %v: %v", args, err)
		}
		var report reportView
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("decode report: %v\n%s", err, out)
		}
		if len(report.Subjects) != 1 || report.Subjects[0] != "Mouse12" {
			t.Fatalf("%v: unexpected subjects %v", args, report.Subjects)
		}
		if len(report.MissingSubjects) != 1 || report.MissingSubjects[0] != "Mouse7" {
			t.Fatalf("%v: unexpected missing subjects %v", args, report.MissingSubjects)
		}
	}

	if _, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--animals", "Mouse12", "Mouse7"}, env.configPath); err == nil {
		t.Fatal("expected space separated --animals to be rejected as an extra argument")
	}
	help, _, err := runCLI(t, []string{"--help"}, env.configPath)
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	requireContains(t, help, "not space separated")
}

func TestInspectContainer(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{env.rawDir, env.outDir, "--save_nwb"}, env.configPath); err != nil {
		t.Fatalf("curate: %v", err)
	}
	sessionDir := filepath.Join(env.outDir, "sub-Mouse12", "ses-20240105T103000")
	path := filepath.Join(sessionDir, "sub-Mouse12-ses-20240105T103000.nwb.json")

	out, _, err := runCLI(t, []string{"inspect", path}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "gcamp")
	requireContains(t, out, "Behavior Home")
	requireContains(t, out, "Mouse12")

	out, _, err = runCLI(t, []string{"inspect", path, "--stream", "gcamp"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect --stream: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(sessionDir, "2024-01-05T10_30_00_miniscope.avi"); got != want {
		t.Fatalf("first file = %q, want %q", got, want)
	}

	out, _, err = runCLI(t, []string{"inspect", path, "--role", "behavior_home", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect --role: %v", err)
	}
	var stream streamView
	if err := json.Unmarshal([]byte(out), &stream); err != nil {
		t.Fatalf("decode stream: %v\n%s", err, out)
	}
	if stream.Name != "behavior_home" || stream.FirstFile != filepath.Join(sessionDir, "2024-01-05T10_30_00_behaviorHome.avi") {
		t.Fatalf("unexpected stream %+v", stream)
	}

	if _, _, err := runCLI(t, []string{"inspect", path, "--stream", "behavior_linear"}, env.configPath); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected validation error for absent stream, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"inspect", path, "--role", "timestamp_log"}, env.configPath); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error for non-stream role, got %v", err)
	}
}
