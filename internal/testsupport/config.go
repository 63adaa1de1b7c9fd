package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ManifestPath = filepath.Join(base, "state", "manifest.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithUnmatchedPolicy sets curation.unmatched.
func WithUnmatchedPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.Unmatched = policy
	}
}

// WithCollisionPolicy sets curation.collisions.
func WithCollisionPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.Collisions = policy
	}
}

// WithContinueOnError enables per-session failure isolation.
func WithContinueOnError() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.ContinueOnError = true
	}
}

// WithVerifiedCopies enables checksum verification of copies.
func WithVerifiedCopies() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Curation.VerifyCopies = true
	}
}

// WithRequiredRoles replaces container.required_roles.
func WithRequiredRoles(roles ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Container.RequiredRoles = roles
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
