package preflight

import (
	"fmt"
	"os"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Request names the paths and the byte budget a run needs.
type Request struct {
	BaseDir       string
	OutputDir     string
	RequiredBytes int64
}

// RunAll executes every check for req.
func RunAll(req Request) []Result {
	return []Result{
		CheckReadable("Base directory", req.BaseDir),
		CheckWritable("Output directory", req.OutputDir),
		CheckFreeSpace("Output free space", req.OutputDir, req.RequiredBytes),
	}
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}

// RequiredBytes sums the sizes of paths.
func RequiredBytes(paths []string) (int64, error) {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", p, err)
		}
		total += info.Size()
	}
	return total, nil
}
