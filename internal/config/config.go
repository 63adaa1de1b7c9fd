package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir       string `toml:"log_dir"`
	ManifestPath string `toml:"manifest_path"`
}

// Discovery controls how subject directories are recognized under base_dir.
type Discovery struct {
	// SubjectPattern is a regular expression matched against immediate child
	// directory names. Default: "Mouse".
	SubjectPattern string `toml:"subject_pattern"`
	IncludeHidden  bool   `toml:"include_hidden"`
}

// Timestamps controls timestamp log resolution.
type Timestamps struct {
	Extensions []string `toml:"extensions"`
}

// Curation contains policies applied while copying sessions.
type Curation struct {
	// Unmatched decides what happens to files without a date/time token:
	// "warn", "ignore", or "fail".
	Unmatched string `toml:"unmatched"`
	// Collisions decides what happens when two files map to the same
	// destination name within a session: "fail" or "overwrite".
	Collisions      string `toml:"collisions"`
	VerifyCopies    bool   `toml:"verify_copies"`
	ContinueOnError bool   `toml:"continue_on_error"`
	SkipCompleted   bool   `toml:"skip_completed"`
}

// Imaging describes the imaging plane and one-photon series written into containers.
type Imaging struct {
	SeriesName         string    `toml:"series_name"`
	DeviceDescription  string    `toml:"device_description"`
	DeviceManufacturer string    `toml:"device_manufacturer"`
	Description        string    `toml:"description"`
	Indicator          string    `toml:"indicator"`
	Location           string    `toml:"location"`
	ImagingRate        float64   `toml:"imaging_rate"`
	EmissionLambda     float64   `toml:"emission_lambda"`
	ExcitationLambda   float64   `toml:"excitation_lambda"`
	GridSpacing        []float64 `toml:"grid_spacing"`
	GridSpacingUnit    string    `toml:"grid_spacing_unit"`
	OriginCoords       []float64 `toml:"origin_coords"`
	OriginCoordsUnit   string    `toml:"origin_coords_unit"`
	Dimension          []int     `toml:"dimension"`
}

// Container contains session and subject metadata for container assembly.
type Container struct {
	Extension          string   `toml:"extension"`
	SessionDescription string   `toml:"session_description"`
	Experimenter       string   `toml:"experimenter"`
	Lab                string   `toml:"lab"`
	Institution        string   `toml:"institution"`
	RequiredRoles      []string `toml:"required_roles"`
	SubjectsFile       string   `toml:"subjects_file"`
	Species            string   `toml:"species"`
	Sex                string   `toml:"sex"`
	Age                string   `toml:"age"`
	Imaging            Imaging  `toml:"imaging"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the curator.
//
// Configuration sections by subsystem:
//   - Paths: log directory and run manifest database
//   - Discovery: subject directory recognition
//   - Timestamps: timestamp log extensions
//   - Curation: unmatched/collision policies, verification, failure isolation
//   - Container: session, subject, and imaging metadata for containers
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Discovery  Discovery  `toml:"discovery"`
	Timestamps Timestamps `toml:"timestamps"`
	Curation   Curation   `toml:"curation"`
	Container  Container  `toml:"container"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config %s: unknown keys:\n%s", resolvedPath, strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the manifest's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.ManifestPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.ManifestPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
