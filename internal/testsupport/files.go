package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes a size-byte stand-in for a video or sensor payload to
// path. The content is derived from the file name so two fixtures of equal
// size still differ byte for byte. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	seed := []byte(filepath.Base(path))
	data := bytes.Repeat(seed, int(size)/len(seed)+1)[:size]
	WriteText(t, path, string(data))
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTimestampLog writes a headerless single-column log with one row per
// entry in rows.
func WriteTimestampLog(t testing.TB, path string, rows ...string) {
	t.Helper()

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	WriteText(t, path, b.String())
}

// ReadText returns the content of path or fails the test.
func ReadText(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
