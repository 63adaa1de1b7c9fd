package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SubjectEntry overrides container subject metadata for one subject.
type SubjectEntry struct {
	Species     string `yaml:"species"`
	Sex         string `yaml:"sex"`
	Age         string `yaml:"age"`
	Description string `yaml:"description"`
}

// SubjectCatalog maps subject IDs to metadata overrides.
type SubjectCatalog map[string]SubjectEntry

// LoadSubjects reads a YAML catalog of the form:
//
//	Mouse12:
//	  sex: F
//	  age: P90D
//
// An empty path or a missing file yields an empty catalog.
func LoadSubjects(path string) (SubjectCatalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return SubjectCatalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SubjectCatalog{}, nil
		}
		return nil, fmt.Errorf("read subjects file: %w", err)
	}
	catalog := SubjectCatalog{}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse subjects file %s: %w", path, err)
	}
	return catalog, nil
}

// Resolve merges the catalog entry for id over defaults.
func (c SubjectCatalog) Resolve(id string, defaults SubjectInfo) SubjectInfo {
	info := defaults
	info.SubjectID = id
	if info.Description == "" {
		info.Description = id
	}
	entry, ok := c[id]
	if !ok {
		return info
	}
	if v := strings.TrimSpace(entry.Species); v != "" {
		info.Species = v
	}
	if v := strings.TrimSpace(entry.Sex); v != "" {
		info.Sex = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(entry.Age); v != "" {
		info.Age = v
	}
	if v := strings.TrimSpace(entry.Description); v != "" {
		info.Description = v
	}
	return info
}
