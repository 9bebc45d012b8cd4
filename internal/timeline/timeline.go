package timeline

import (
	"maps"
	"slices"
	"strings"
)

// ControlMode names the conditioning used to drive generation of a shot.
type ControlMode string

const (
	ModeTextToVideo  ControlMode = "t2v"
	ModeImageToVideo ControlMode = "i2v"
	ModeKeyframes    ControlMode = "keyframes"
	ModeMultiRef     ControlMode = "multiref"
)

// Modes lists every known control mode.
var Modes = []ControlMode{ModeTextToVideo, ModeImageToVideo, ModeKeyframes, ModeMultiRef}

// ParseControlMode normalizes raw input. Unknown values are returned as-is so
// the resolver can treat them as unsupported.
func ParseControlMode(raw string) ControlMode {
	return ControlMode(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether m is one of the four control modes.
func (m ControlMode) Known() bool {
	return slices.Contains(Modes, m)
}

func (m ControlMode) String() string { return string(m) }

// Timeline is the ordered shot list for a run.
type Timeline struct {
	Version  string         `json:"version,omitempty" yaml:"version,omitempty"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Shots    []Shot         `json:"shots" yaml:"shots"`
}

// Shot is one unit of timed generation work.
type Shot struct {
	ShotID       string         `json:"shot_id" yaml:"shot_id"`
	StartSec     float64        `json:"start_sec" yaml:"start_sec"`
	EndSec       float64        `json:"end_sec" yaml:"end_sec"`
	DurationSec  float64        `json:"duration_sec" yaml:"duration_sec"`
	ControlMode  ControlMode    `json:"control_mode,omitempty" yaml:"control_mode,omitempty"`
	Prompt       string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Refs         Refs           `json:"refs" yaml:"refs"`
	SeedancePlan GenerationPlan `json:"seedance_plan" yaml:"seedance_plan"`
	RetryPolicy  RetryPolicy    `json:"retry_policy" yaml:"retry_policy"`
}

// Refs lists the reference assets attached to a shot.
type Refs struct {
	ImageAssetIDs []string `json:"image_asset_ids" yaml:"image_asset_ids"`
	AudioAssetIDs []string `json:"audio_asset_ids" yaml:"audio_asset_ids"`
}

// GenerationPlan is the per-shot generation sub-plan. Unset optional fields
// fall back to run defaults during resolution.
type GenerationPlan struct {
	ModelID     string  `json:"model_id,omitempty" yaml:"model_id,omitempty"`
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	DraftMode   *bool   `json:"draft_mode,omitempty" yaml:"draft_mode,omitempty"`
}

// RetryPolicy carries the shot's fallback mode, if declared.
type RetryPolicy struct {
	FallbackMode ControlMode `json:"fallback_mode,omitempty" yaml:"fallback_mode,omitempty"`
}

// RequestedMode returns the declared control mode, defaulting to t2v.
func (s Shot) RequestedMode() ControlMode {
	if mode := ParseControlMode(string(s.ControlMode)); mode != "" {
		return mode
	}
	return ModeTextToVideo
}

// Clone returns a deep copy of the shot.
func (s Shot) Clone() Shot {
	out := s
	out.Refs.ImageAssetIDs = slices.Clone(s.Refs.ImageAssetIDs)
	out.Refs.AudioAssetIDs = slices.Clone(s.Refs.AudioAssetIDs)
	if s.SeedancePlan.DraftMode != nil {
		draft := *s.SeedancePlan.DraftMode
		out.SeedancePlan.DraftMode = &draft
	}
	return out
}

// Clone returns a deep copy of the timeline.
func (t Timeline) Clone() Timeline {
	out := t
	out.Metadata = maps.Clone(t.Metadata)
	if t.Shots != nil {
		out.Shots = make([]Shot, len(t.Shots))
		for i, shot := range t.Shots {
			out.Shots[i] = shot.Clone()
		}
	}
	return out
}

// ShotIDs lists shot identifiers in timeline order.
func (t Timeline) ShotIDs() []string {
	ids := make([]string, len(t.Shots))
	for i, shot := range t.Shots {
		ids[i] = shot.ShotID
	}
	return ids
}
