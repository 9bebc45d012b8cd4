package testsupport

import (
	"path/filepath"
	"testing"

	"comicflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The returned config writes run outputs under <base>/project/outputs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputsDir = "outputs"
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Preflight.MinFreeMiB = 0

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

// WithModels appends extra capability records.
func WithModels(models ...config.Model) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Models = append(b.cfg.Models, models...)
	}
}

// WithRegenPolicy sets the default regeneration policy.
func WithRegenPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Eval.RegenPolicy = policy
	}
}

// WithScoreThreshold sets the default eval threshold.
func WithScoreThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Eval.ScoreThreshold = threshold
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// ProjectRoot returns the project root directory paired with cfg.
func ProjectRoot(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "project")
}
