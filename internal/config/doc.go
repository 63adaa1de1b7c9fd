// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and curation stages need: where logs and the run manifest live, how
// subject directories are recognized, which files count as timestamp logs, how
// unmatched filenames and destination collisions are handled, and the metadata
// stamped into assembled containers.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policy names, and clear validation errors.
package config
