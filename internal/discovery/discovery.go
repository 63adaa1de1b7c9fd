// Package discovery enumerates subject directories under a base directory and
// lists every recorded file beneath them.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"curator/internal/pipeline"
)

const stage = "discovery"

// Options controls which subject directories are visited.
type Options struct {
	BaseDir string
	// Subjects is an optional allow-list of subject identifiers. Empty means
	// every directory matching SubjectPattern.
	Subjects []string
	// SubjectPattern is matched against immediate child directory names.
	SubjectPattern *regexp.Regexp
	IncludeHidden  bool
}

// Subject is one subject directory and its descendant files in walk order.
type Subject struct {
	ID    string
	Dir   string
	Files []string
}

// Result lists discovered subjects sorted by ID. Missing names allow-listed
// subjects that have no matching directory.
type Result struct {
	Subjects []Subject
	Missing  []string
}

// FileCount returns the number of files across all subjects.
func (r Result) FileCount() int {
	total := 0
	for _, s := range r.Subjects {
		total += len(s.Files)
	}
	return total
}

// Discover walks opts.BaseDir and returns every matching subject directory
// with its descendant regular files.
func Discover(ctx context.Context, opts Options) (Result, error) {
	base := strings.TrimSpace(opts.BaseDir)
	if base == "" {
		return Result{}, pipeline.Wrap(pipeline.ErrDiscovery, stage, "resolve base directory", "base directory is required", nil)
	}
	info, err := os.Stat(base)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrDiscovery, stage, "stat base directory", base, err)
	}
	if !info.IsDir() {
		return Result{}, pipeline.Wrap(pipeline.ErrDiscovery, stage, "stat base directory", base+" is not a directory", nil)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrDiscovery, stage, "read base directory", base, err)
	}

	allow := make(map[string]struct{}, len(opts.Subjects))
	for _, id := range opts.Subjects {
		if id = strings.TrimSpace(id); id != "" {
			allow[id] = struct{}{}
		}
	}

	var result Result
	found := make(map[string]struct{})
	for _, entry := range entries {
		if !isDirEntry(base, entry) {
			continue
		}
		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if opts.SubjectPattern != nil && !opts.SubjectPattern.MatchString(name) {
			continue
		}
		if len(allow) > 0 {
			if _, ok := allow[name]; !ok {
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		dir := filepath.Join(base, name)
		files, err := listFiles(dir, opts.IncludeHidden)
		if err != nil {
			return Result{}, pipeline.Wrap(pipeline.ErrDiscovery, stage, "list subject files", dir, err)
		}
		result.Subjects = append(result.Subjects, Subject{ID: name, Dir: dir, Files: files})
		found[name] = struct{}{}
	}

	sort.Slice(result.Subjects, func(i, j int) bool {
		return result.Subjects[i].ID < result.Subjects[j].ID
	})
	for id := range allow {
		if _, ok := found[id]; !ok {
			result.Missing = append(result.Missing, id)
		}
	}
	sort.Strings(result.Missing)
	return result, nil
}

// isDirEntry reports whether entry is a directory, following symlinks so that
// subject folders linked in from other volumes are still visited.
func isDirEntry(base string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(base, entry.Name()))
	return err == nil && info.IsDir()
}

// listFiles walks root recursively. A symlinked root is resolved first so its
// contents are walked, but returned paths stay under root.
func listFiles(root string, includeHidden bool) ([]string, error) {
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == walkRoot {
			return nil
		}
		hidden := strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if hidden && !includeHidden {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden && !includeHidden {
			return nil
		}
		if !d.Type().IsRegular() {
			info, statErr := os.Stat(path)
			if statErr != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.Join(root, rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
