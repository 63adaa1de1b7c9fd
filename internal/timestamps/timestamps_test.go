package timestamps_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"curator/internal/pipeline"
	"curator/internal/timestamps"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestResolveRelativeSeries(t *testing.T) {
	dir := t.TempDir()
	log := writeLog(t, dir, "2024-01-05T10_30_00_ts.csv",
		"2024-01-05 10:30:00.000\n2024-01-05 10:30:00.040\n2024-01-05 10:30:01.500\n")
	video := filepath.Join(dir, "2024-01-05T10_30_00_miniscope.avi")

	series, err := timestamps.Resolve([]string{video, log}, timestamps.Options{Extensions: []string{".csv"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if series.Source != log {
		t.Fatalf("unexpected source %q", series.Source)
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", series.Len())
	}
	want := []float64{0, 0.04, 1.5}
	for i := range want {
		if !approx(series.Offsets[i], want[i]) {
			t.Fatalf("offset[%d] = %v, want %v", i, series.Offsets[i], want[i])
		}
	}
	if !series.Start.Equal(time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", series.Start)
	}
	if series.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration %v", series.Duration())
	}
}

func TestParsePreservesNonMonotonicOrder(t *testing.T) {
	series, err := timestamps.Parse(strings.NewReader("2024-01-05T10:30:02Z\n2024-01-05T10:30:01Z\n2024-01-05T10:30:03Z\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []float64{0, -1, 1}
	for i := range want {
		if !approx(series.Offsets[i], want[i]) {
			t.Fatalf("offset[%d] = %v, want %v", i, series.Offsets[i], want[i])
		}
	}
}

func TestParseNumericEpochSecondsAndExtraColumns(t *testing.T) {
	series, err := timestamps.Parse(strings.NewReader("1704450600.25,frame0\n\n1704450600.75,frame1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if series.Len() != 2 || !approx(series.Offsets[1], 0.5) {
		t.Fatalf("unexpected offsets %v", series.Offsets)
	}
	if want := time.Date(2024, 1, 5, 10, 30, 0, 250_000_000, time.UTC); !series.Start.Equal(want) {
		t.Fatalf("numeric rows should be epoch seconds: start %v, want %v", series.Start, want)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":   "",
		"garbage": "2024-01-05 10:30:00\nnot-a-time\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := timestamps.Parse(strings.NewReader(content)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestParseFileWrapsParseError(t *testing.T) {
	path := writeLog(t, t.TempDir(), "bad.csv", "yesterday\n")
	_, err := timestamps.ParseFile(path)
	if !errors.Is(err, pipeline.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line number in %q", err)
	}
}

func TestResolveMissingLog(t *testing.T) {
	_, err := timestamps.Resolve([]string{"/x/a.avi", "/x/b.avi"}, timestamps.Options{})
	if !errors.Is(err, pipeline.ErrMissingTimestamp) {
		t.Fatalf("expected missing timestamp error, got %v", err)
	}
}

func TestResolveMultipleLogsPicksLexicallyFirst(t *testing.T) {
	dir := t.TempDir()
	second := writeLog(t, dir, "b_ts.csv", "2024-01-05T10:30:00Z\n")
	first := writeLog(t, dir, "a_ts.CSV", "2024-01-05T10:30:00Z\n2024-01-05T10:30:01Z\n")

	series, err := timestamps.Resolve([]string{second, first}, timestamps.Options{Extensions: []string{".csv"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if series.Source != first {
		t.Fatalf("expected %q, got %q", first, series.Source)
	}
	if len(series.Ignored) != 1 || series.Ignored[0] != second {
		t.Fatalf("expected %q ignored, got %v", second, series.Ignored)
	}
}

func TestIsLog(t *testing.T) {
	opts := timestamps.Options{Extensions: []string{".csv", ".tsv"}}
	if !opts.IsLog("x/TS.CSV") || !opts.IsLog("y.tsv") {
		t.Fatal("expected csv/tsv to be recognized")
	}
	if opts.IsLog("z.avi") || opts.IsLog("noext") {
		t.Fatal("unexpected log match")
	}
}
