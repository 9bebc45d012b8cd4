package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"comicflow/internal/config"
	"comicflow/internal/services"
	"comicflow/internal/textutil"
	"comicflow/internal/timeline"
)

// DefaultTimelineSource is used when the plan block names no timeline.
const DefaultTimelineSource = "specs/examples/timeline.v1.sample.json"

// DefaultOutputName is the assembled artifact file name.
const DefaultOutputName = "final.mp4"

// Config holds the typed per-stage configuration blocks.
type Config struct {
	Plan     PlanConfig     `json:"plan" yaml:"plan"`
	Generate GenerateConfig `json:"generate" yaml:"generate"`
	Assemble AssembleConfig `json:"assemble" yaml:"assemble"`
	Eval     EvalConfig     `json:"eval" yaml:"eval"`
}

// PlanConfig configures the plan stage.
type PlanConfig struct {
	TimelineSource string `json:"timeline_source" yaml:"timeline_source"`
}

// GenerateConfig configures the generate stage. Pointer fields are optional
// in descriptors and filled from application defaults.
type GenerateConfig struct {
	Engine       string               `json:"engine" yaml:"engine"`
	ModelID      string               `json:"model_id" yaml:"model_id"`
	DraftMode    *bool                `json:"draft_mode" yaml:"draft_mode"`
	FallbackMode timeline.ControlMode `json:"fallback_mode" yaml:"fallback_mode"`
}

// Draft returns the resolved draft default.
func (g GenerateConfig) Draft() bool {
	return g.DraftMode != nil && *g.DraftMode
}

// AssembleConfig configures the assemble stage.
type AssembleConfig struct {
	OutputName string `json:"output_name" yaml:"output_name"`
}

// EvalConfig configures the eval stage.
type EvalConfig struct {
	ScoreThreshold *float64           `json:"score_threshold" yaml:"score_threshold"`
	RegenPolicy    string             `json:"regen_policy" yaml:"regen_policy"`
	Scores         map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// Threshold returns the resolved score threshold.
func (e EvalConfig) Threshold() float64 {
	if e.ScoreThreshold == nil {
		return 0
	}
	return *e.ScoreThreshold
}

// rawStage tolerates any stage name so normalization can report unknown ones.
type rawStage struct {
	Name string `json:"name" yaml:"name"`
}

type rawMeta struct {
	RunID string `json:"run_id" yaml:"run_id"`
}

type rawDescriptor struct {
	Meta   rawMeta    `json:"run" yaml:"run"`
	Config Config     `json:"config" yaml:"config"`
	Stages []rawStage `json:"stages" yaml:"stages"`
}

// LoadDescriptor reads a workflow descriptor (JSON, or YAML for .yaml/.yml)
// and returns a normalized pending Run. Missing or malformed descriptors and
// unknown stage names are configuration errors.
func LoadDescriptor(path string, cfg *config.Config) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "load workflow", "read descriptor", err)
	}
	run, err := ParseDescriptor(data, timeline.IsYAML(path), cfg)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ParseDescriptor decodes and normalizes a descriptor document.
func ParseDescriptor(data []byte, asYAML bool, cfg *config.Config) (*Run, error) {
	var raw rawDescriptor
	if asYAML {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "load workflow", "parse descriptor", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "load workflow", "parse descriptor", err)
		}
	}

	stages, err := normalizeStages(raw.Stages)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Meta: RunMeta{
			RunID:  strings.TrimSpace(raw.Meta.RunID),
			Status: StatusPending,
		},
		Config: raw.Config,
		Stages: stages,
	}
	if run.Meta.RunID == "" {
		run.Meta.RunID = NewRunID()
	}
	if err := ValidateRunID(run.Meta.RunID); err != nil {
		return nil, err
	}
	run.Config.ApplyDefaults(cfg)
	if err := run.Config.Validate(); err != nil {
		return nil, err
	}
	return run, nil
}

// NewRun builds a pending run with default configuration, as if loaded from
// an empty descriptor.
func NewRun(runID string, cfg *config.Config) *Run {
	stages, _ := normalizeStages(nil)
	run := &Run{Meta: RunMeta{RunID: strings.TrimSpace(runID), Status: StatusPending}, Stages: stages}
	if run.Meta.RunID == "" {
		run.Meta.RunID = NewRunID()
	}
	run.Config.ApplyDefaults(cfg)
	return run
}

// ValidateRunID rejects ids whose directory name would not be a child of the
// outputs root: empty after sanitizing, "." or "..".
func ValidateRunID(id string) error {
	switch textutil.SanitizeFileName(id) {
	case "", ".", "..":
		return services.Wrap(services.ErrConfiguration, "", "load workflow",
			fmt.Sprintf("run_id %q does not name a directory", id), nil)
	}
	return nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return "run-" + uuid.NewString()
}

// normalizeStages maps the declared stage list onto the fixed four-entry
// order. Every execution starts from pending stages.
func normalizeStages(declared []rawStage) ([]Stage, error) {
	seen := make(map[StageName]struct{}, len(declared))
	for _, st := range declared {
		name, ok := ParseStageName(st.Name)
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "", "load workflow",
				fmt.Sprintf("unknown stage name %q", st.Name), nil)
		}
		if _, dup := seen[name]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "", "load workflow",
				fmt.Sprintf("duplicate stage %q", name), nil)
		}
		seen[name] = struct{}{}
	}
	stages := make([]Stage, 0, len(StageOrder))
	for _, name := range StageOrder {
		stages = append(stages, newPendingStage(name))
	}
	return stages, nil
}

// ApplyDefaults fills unset fields from application configuration.
func (c *Config) ApplyDefaults(cfg *config.Config) {
	defaults := config.Default()
	if cfg == nil {
		cfg = &defaults
	}

	c.Plan.TimelineSource = strings.TrimSpace(c.Plan.TimelineSource)
	if c.Plan.TimelineSource == "" {
		c.Plan.TimelineSource = DefaultTimelineSource
	}

	c.Generate.Engine = strings.TrimSpace(c.Generate.Engine)
	if c.Generate.Engine == "" {
		c.Generate.Engine = cfg.Generate.Engine
	}
	c.Generate.ModelID = strings.TrimSpace(c.Generate.ModelID)
	if c.Generate.ModelID == "" {
		c.Generate.ModelID = cfg.Generate.ModelID
	}
	if c.Generate.DraftMode == nil {
		draft := cfg.Generate.DraftMode
		c.Generate.DraftMode = &draft
	}
	c.Generate.FallbackMode = timeline.ParseControlMode(string(c.Generate.FallbackMode))
	if c.Generate.FallbackMode == "" {
		c.Generate.FallbackMode = timeline.ParseControlMode(cfg.Generate.FallbackMode)
	}

	c.Assemble.OutputName = strings.TrimSpace(c.Assemble.OutputName)
	if c.Assemble.OutputName == "" {
		c.Assemble.OutputName = DefaultOutputName
	}

	if c.Eval.ScoreThreshold == nil {
		threshold := cfg.Eval.ScoreThreshold
		c.Eval.ScoreThreshold = &threshold
	}
	c.Eval.RegenPolicy = strings.ToLower(strings.TrimSpace(c.Eval.RegenPolicy))
	if c.Eval.RegenPolicy == "" {
		c.Eval.RegenPolicy = cfg.Eval.RegenPolicy
	}
}

// Validate rejects configuration the stages cannot act on.
func (c Config) Validate() error {
	if c.Assemble.OutputName != filepath.Base(c.Assemble.OutputName) {
		return services.Wrap(services.ErrConfiguration, "", "load workflow",
			fmt.Sprintf("assemble.output_name %q must be a bare file name", c.Assemble.OutputName), nil)
	}
	switch c.Eval.RegenPolicy {
	case "first_shot", "all_shots", "none":
	default:
		return services.Wrap(services.ErrConfiguration, "", "load workflow",
			fmt.Sprintf("unsupported eval.regen_policy %q", c.Eval.RegenPolicy), nil)
	}
	return nil
}
