package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenerate()
	c.normalizeEval()
	c.normalizePreflight()
	c.normalizeLogging()
	c.normalizeModels()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("COMICFLOW_OUTPUTS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputsDir = value
	}
	c.Paths.OutputsDir = strings.TrimSpace(c.Paths.OutputsDir)
	if c.Paths.OutputsDir == "" {
		c.Paths.OutputsDir = defaultOutputsDir
	}
	// Relative outputs dirs stay relative; they are resolved against the
	// project root at run time.
	if strings.HasPrefix(c.Paths.OutputsDir, "~") || filepath.IsAbs(c.Paths.OutputsDir) {
		if c.Paths.OutputsDir, err = expandPath(c.Paths.OutputsDir); err != nil {
			return fmt.Errorf("paths.outputs_dir: %w", err)
		}
	} else {
		c.Paths.OutputsDir = filepath.Clean(c.Paths.OutputsDir)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGenerate() {
	if value, ok := os.LookupEnv("COMICFLOW_MODEL_ID"); ok && strings.TrimSpace(value) != "" {
		c.Generate.ModelID = value
	}
	c.Generate.ModelID = strings.TrimSpace(c.Generate.ModelID)
	if c.Generate.ModelID == "" {
		c.Generate.ModelID = defaultModelID
	}
	c.Generate.Engine = strings.TrimSpace(c.Generate.Engine)
	if c.Generate.Engine == "" {
		c.Generate.Engine = defaultEngine
	}
	c.Generate.FallbackMode = strings.ToLower(strings.TrimSpace(c.Generate.FallbackMode))
	if c.Generate.FallbackMode == "" {
		c.Generate.FallbackMode = defaultFallbackMode
	}
}

func (c *Config) normalizeEval() {
	c.Eval.RegenPolicy = strings.ToLower(strings.TrimSpace(c.Eval.RegenPolicy))
	if c.Eval.RegenPolicy == "" {
		c.Eval.RegenPolicy = defaultRegenPolicy
	}
}

func (c *Config) normalizePreflight() {
	if c.Preflight.MinFreeMiB < 0 {
		c.Preflight.MinFreeMiB = 0
	}
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
	if value, ok := os.LookupEnv("COMICFLOW_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			level = strings.ToLower(strings.TrimSpace(level))
			if stage == "" || level == "" {
				continue
			}
			overrides[stage] = level
		}
		c.Logging.StageOverrides = overrides
	}
}

func (c *Config) normalizeModels() {
	for i := range c.Models {
		c.Models[i].ID = strings.TrimSpace(c.Models[i].ID)
		c.Models[i].Label = strings.TrimSpace(c.Models[i].Label)
	}
}
