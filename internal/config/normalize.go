package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeTimestamps()
	c.normalizeCuration()
	if err := c.normalizeContainer(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ManifestPath) == "" {
		c.Paths.ManifestPath = defaultManifestPath
	}
	if c.Paths.ManifestPath, err = expandPath(c.Paths.ManifestPath); err != nil {
		return fmt.Errorf("paths.manifest_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.SubjectPattern = strings.TrimSpace(c.Discovery.SubjectPattern)
	if c.Discovery.SubjectPattern == "" {
		c.Discovery.SubjectPattern = defaultSubjectPattern
	}
}

func (c *Config) normalizeTimestamps() {
	exts := make([]string, 0, len(c.Timestamps.Extensions))
	seen := make(map[string]struct{}, len(c.Timestamps.Extensions))
	for _, ext := range c.Timestamps.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{".csv"}
	}
	c.Timestamps.Extensions = exts
}

func (c *Config) normalizeCuration() {
	c.Curation.Unmatched = strings.ToLower(strings.TrimSpace(c.Curation.Unmatched))
	if c.Curation.Unmatched == "" {
		c.Curation.Unmatched = defaultUnmatchedPolicy
	}
	c.Curation.Collisions = strings.ToLower(strings.TrimSpace(c.Curation.Collisions))
	if c.Curation.Collisions == "" {
		c.Curation.Collisions = defaultCollisionPolicy
	}
}

func (c *Config) normalizeContainer() error {
	c.Container.Extension = strings.TrimPrefix(strings.TrimSpace(c.Container.Extension), ".")
	if c.Container.Extension == "" {
		c.Container.Extension = defaultContainerExtension
	}
	c.Container.SessionDescription = strings.TrimSpace(c.Container.SessionDescription)
	if c.Container.SessionDescription == "" {
		c.Container.SessionDescription = defaultSessionDescription
	}
	c.Container.Experimenter = strings.TrimSpace(c.Container.Experimenter)
	c.Container.Lab = strings.TrimSpace(c.Container.Lab)
	c.Container.Institution = strings.TrimSpace(c.Container.Institution)
	c.Container.Species = strings.TrimSpace(c.Container.Species)
	if c.Container.Species == "" {
		c.Container.Species = defaultSpecies
	}
	c.Container.Sex = strings.ToUpper(strings.TrimSpace(c.Container.Sex))
	if c.Container.Sex == "" {
		c.Container.Sex = defaultSex
	}
	c.Container.Age = strings.TrimSpace(c.Container.Age)

	roles := make([]string, 0, len(c.Container.RequiredRoles))
	for _, role := range c.Container.RequiredRoles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			roles = append(roles, normalized)
		}
	}
	c.Container.RequiredRoles = roles

	if strings.TrimSpace(c.Container.SubjectsFile) != "" {
		var err error
		if c.Container.SubjectsFile, err = expandPath(c.Container.SubjectsFile); err != nil {
			return fmt.Errorf("container.subjects_file: %w", err)
		}
	}

	img := &c.Container.Imaging
	img.SeriesName = strings.TrimSpace(img.SeriesName)
	if img.SeriesName == "" {
		img.SeriesName = "gcamp"
	}
	img.GridSpacingUnit = strings.TrimSpace(img.GridSpacingUnit)
	img.OriginCoordsUnit = strings.TrimSpace(img.OriginCoordsUnit)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
