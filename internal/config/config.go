package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputsDir is resolved against the project root unless absolute.
	OutputsDir string `toml:"outputs_dir"`
	LogDir     string `toml:"log_dir"`
}

// Generate holds run-wide generation defaults. Workflow descriptors override
// these per run.
type Generate struct {
	Engine       string `toml:"engine"`
	ModelID      string `toml:"model_id"`
	DraftMode    bool   `toml:"draft_mode"`
	FallbackMode string `toml:"fallback_mode"`
}

// Eval holds evaluation defaults.
type Eval struct {
	ScoreThreshold float64 `toml:"score_threshold"`
	RegenPolicy    string  `toml:"regen_policy"`
}

// Preflight controls the checks run before a workflow starts.
type Preflight struct {
	Enabled    bool `toml:"enabled"`
	MinFreeMiB int  `toml:"min_free_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Model declares an additional capability record merged into the built-in
// registry at startup.
type Model struct {
	ID                 string `toml:"id"`
	Label              string `toml:"label"`
	TextToVideo        bool   `toml:"t2v"`
	ImageFirstFrame    bool   `toml:"i2v_first"`
	ImageFirstAndLast  bool   `toml:"i2v_first_last"`
	Audio              bool   `toml:"audio"`
	Draft              bool   `toml:"draft"`
	ReferenceImagesMax *int   `toml:"reference_images_max"`
}

// Config encapsulates all configuration values for comicflow.
//
// Configuration sections by subsystem:
//   - Paths: output tree root and log directory
//   - Generate: default engine, model, draft and fallback settings
//   - Eval: default score threshold and regeneration policy
//   - Preflight: output directory checks run before a workflow
//   - Logging: log format, level, and per-stage overrides
//   - Models: extra capability records
type Config struct {
	Paths     Paths     `toml:"paths"`
	Generate  Generate  `toml:"generate"`
	Eval      Eval      `toml:"eval"`
	Preflight Preflight `toml:"preflight"`
	Logging   Logging   `toml:"logging"`
	Models    []Model   `toml:"models"`
}

// DefaultConfigPath is ~/.config/comicflow/config.toml, expanded.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/comicflow/config.toml")
}

// Load reads the configuration at path, or the first of the default path and
// ./comicflow.toml that exists when path is empty. Missing files yield the
// built-in defaults. It returns the config, the path that was (or would have
// been) read, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile strictly decodes TOML; unknown keys are rejected so typos in
// stage_overrides or [[models]] surface at load time.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from dir/.env into the process
// environment. Variables that are already set win. A missing file is not an
// error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	switch ok, err := isFile(path); {
	case err != nil:
		return fmt.Errorf("stat env file: %w", err)
	case !ok:
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// isFile reports whether path names an existing regular file. A missing
// path is not an error.
func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func resolveConfigPath(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		explicit, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		candidates = []string{explicit}
	} else {
		home, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		local, err := filepath.Abs("comicflow.toml")
		if err != nil {
			return "", false, err
		}
		candidates = []string{home, local}
	}
	for _, c := range candidates {
		ok, err := isFile(c)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if ok {
			return c, true, nil
		}
	}
	return candidates[0], false, nil
}

// OutputsRoot returns the directory under which per-run output trees live.
func (c *Config) OutputsRoot(projectRoot string) string {
	dir := strings.TrimSpace(c.Paths.OutputsDir)
	if dir == "" {
		dir = defaultOutputsDir
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(projectRoot, dir)
}

// StageLogLevel returns the configured override for a stage, if any.
func (c *Config) StageLogLevel(stage string) (string, bool) {
	if c == nil || len(c.Logging.StageOverrides) == 0 {
		return "", false
	}
	level, ok := c.Logging.StageOverrides[strings.ToLower(strings.TrimSpace(stage))]
	if !ok || level == "" {
		return "", false
	}
	return level, true
}

// EnsureDirectories creates the log directory when one is configured. Run
// output directories are created per run by the workflow manager.
func (c *Config) EnsureDirectories() error {
	dir := strings.TrimSpace(c.Paths.LogDir)
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %q: %w", dir, err)
	}
	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory and returns
// the cleaned absolute path. Empty input is returned unchanged.
func ExpandPath(p string) (string, error) { return expandPath(p) }

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimLeft(p[1:], `/\`))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the embedded sample config.toml to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
