package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownControlModes = map[string]struct{}{
	"t2v":       {},
	"i2v":       {},
	"keyframes": {},
	"multiref":  {},
}

var knownRegenPolicies = map[string]struct{}{
	"first_shot": {},
	"all_shots":  {},
	"none":       {},
}

var knownLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGenerate(); err != nil {
		return err
	}
	if err := c.validateEval(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGenerate() error {
	if strings.TrimSpace(c.Generate.ModelID) == "" {
		return errors.New("generate.model_id must be set")
	}
	if _, ok := knownControlModes[c.Generate.FallbackMode]; !ok {
		return fmt.Errorf("generate.fallback_mode %q must be one of t2v, i2v, keyframes, multiref", c.Generate.FallbackMode)
	}
	return nil
}

func (c *Config) validateEval() error {
	if c.Eval.ScoreThreshold < 0 || c.Eval.ScoreThreshold > 100 {
		return errors.New("eval.score_threshold must be between 0 and 100")
	}
	if _, ok := knownRegenPolicies[c.Eval.RegenPolicy]; !ok {
		return fmt.Errorf("eval.regen_policy %q must be one of first_shot, all_shots, none", c.Eval.RegenPolicy)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := knownLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if _, ok := knownLogLevels[level]; !ok {
			return fmt.Errorf("logging.stage_overrides.%s: unknown level %q", stage, level)
		}
	}
	return nil
}

func (c *Config) validateModels() error {
	seen := make(map[string]struct{}, len(c.Models))
	for idx, model := range c.Models {
		if model.ID == "" {
			return fmt.Errorf("models[%d].id must be set", idx)
		}
		if _, dup := seen[model.ID]; dup {
			return fmt.Errorf("models[%d]: duplicate id %q", idx, model.ID)
		}
		seen[model.ID] = struct{}{}
		if !model.TextToVideo && !model.ImageFirstFrame && !model.ImageFirstAndLast {
			return fmt.Errorf("models[%d] (%s): at least one of t2v, i2v_first, i2v_first_last must be true", idx, model.ID)
		}
		if model.ReferenceImagesMax != nil && *model.ReferenceImagesMax < 0 {
			return fmt.Errorf("models[%d] (%s): reference_images_max must be >= 0", idx, model.ID)
		}
	}
	return nil
}
