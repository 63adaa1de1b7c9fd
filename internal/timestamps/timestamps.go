// Package timestamps resolves a session's timestamp log and converts it into
// a series of offsets relative to the first logged frame.
package timestamps

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"curator/internal/pipeline"
)

const stage = "timestamps"

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15_04_05",
	"2006-01-02",
}

// Options controls which files are treated as timestamp logs.
type Options struct {
	// Extensions are lower-case, dot-prefixed. Defaults to .csv.
	Extensions []string
}

// Series is the relative time base shared by every stream in a session.
type Series struct {
	// Source is the timestamp log that was parsed.
	Source string
	// Ignored lists additional candidate logs that were not used.
	Ignored []string
	// Start is the absolute time of the first row.
	Start time.Time
	// Offsets are seconds since Start, one per row, in file order. Offsets[0]
	// is always 0. Non-monotonic input is preserved as-is.
	Offsets []float64
}

// Len returns the number of rows in the series.
func (s Series) Len() int { return len(s.Offsets) }

// Duration returns the offset of the last row.
func (s Series) Duration() time.Duration {
	if len(s.Offsets) == 0 {
		return 0
	}
	return time.Duration(s.Offsets[len(s.Offsets)-1] * float64(time.Second))
}

// IsLog reports whether path carries one of the recognized log extensions.
func (o Options) IsLog(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	exts := o.Extensions
	if len(exts) == 0 {
		exts = []string{".csv"}
	}
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Find returns the timestamp log among files plus any extra candidates. When
// several logs are present the lexically first path wins.
func Find(files []string, opts Options) (string, []string, error) {
	var candidates []string
	for _, f := range files {
		if opts.IsLog(f) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return "", nil, pipeline.Wrap(pipeline.ErrMissingTimestamp, stage, "locate timestamp log", "no timestamp log among session files", nil)
	}
	sort.Strings(candidates)
	return candidates[0], candidates[1:], nil
}

// Resolve locates the session's timestamp log among files and parses it.
func Resolve(files []string, opts Options) (Series, error) {
	source, ignored, err := Find(files, opts)
	if err != nil {
		return Series{}, err
	}
	series, err := ParseFile(source)
	if err != nil {
		return Series{}, err
	}
	series.Ignored = ignored
	return series, nil
}

// ParseFile reads an unlabeled single-column log of absolute timestamps.
func ParseFile(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, pipeline.Wrap(pipeline.ErrMissingTimestamp, stage, "open timestamp log", path, err)
	}
	defer f.Close()

	series, err := Parse(f)
	if err != nil {
		return Series{}, pipeline.Wrap(pipeline.ErrParse, stage, "parse timestamp log", filepath.Base(path), err)
	}
	series.Source = path
	return series, nil
}

// Parse reads timestamps from r. Only the first column of each record is used
// and blank lines are skipped.
func Parse(r io.Reader) (Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		series Series
		line   int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		ts, err := parseTimestamp(record[0])
		if err != nil {
			return Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(series.Offsets) == 0 {
			series.Start = ts
			series.Offsets = append(series.Offsets, 0)
			continue
		}
		series.Offsets = append(series.Offsets, ts.Sub(series.Start).Seconds())
	}
	if len(series.Offsets) == 0 {
		return Series{}, errors.New("timestamp log has no rows")
	}
	return series, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	// Numeric rows are epoch seconds with an optional fraction, not nanoseconds.
	if secs, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
