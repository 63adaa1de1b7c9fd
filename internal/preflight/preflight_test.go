package preflight

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckReadable(t *testing.T) {
	dir := t.TempDir()
	if result := CheckReadable("base", dir); !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}

	missing := CheckReadable("base", filepath.Join(dir, "nope"))
	if missing.Passed || !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("expected missing-dir failure, got %+v", missing)
	}

	f := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckReadable("base", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableWalksToExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	result := CheckWritable("output", filepath.Join(dir, "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable path, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creation note, got %q", result.Detail)
	}
	if result := CheckWritable("output", dir); !result.Passed || !strings.Contains(result.Detail, "write ok") {
		t.Fatalf("expected existing dir to pass, got %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected 1 byte to fit, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, math.MaxInt64); result.Passed {
		t.Fatalf("expected failure for impossible requirement, got: %s", result.Detail)
	}
}

func TestRunAllAndFirstFailure(t *testing.T) {
	base := t.TempDir()
	results := RunAll(Request{BaseDir: base, OutputDir: filepath.Join(base, "out"), RequiredBytes: 0})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed, ok := FirstFailure(results); ok {
		t.Fatalf("unexpected failure %+v", failed)
	}

	results = RunAll(Request{BaseDir: filepath.Join(base, "missing"), OutputDir: base})
	failed, ok := FirstFailure(results)
	if !ok || failed.Name != "Base directory" {
		t.Fatalf("expected base directory failure, got %+v, %v", failed, ok)
	}
}

func TestRequiredBytes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, make([]byte, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	total, err := RequiredBytes([]string{a, b})
	if err != nil || total != 15 {
		t.Fatalf("RequiredBytes = %d, %v", total, err)
	}
	if _, err := RequiredBytes([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
