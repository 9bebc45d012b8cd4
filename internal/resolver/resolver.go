package resolver

import (
	"fmt"

	"comicflow/internal/capability"
	"comicflow/internal/services"
	"comicflow/internal/timeline"
)

// FallbackOrder is the preference order used when a fallback mode must be
// picked. Single-image control is preferred over keyframes, then plain
// text-to-video, then multi-reference.
var FallbackOrder = []timeline.ControlMode{
	timeline.ModeImageToVideo,
	timeline.ModeKeyframes,
	timeline.ModeTextToVideo,
	timeline.ModeMultiRef,
}

// Defaults are the run-level values used when a shot leaves a field unset.
type Defaults struct {
	ModelID      string
	DraftMode    bool
	FallbackMode timeline.ControlMode
}

// Result is the outcome of resolving one shot.
type Result struct {
	Shot          timeline.Shot
	RequestedMode timeline.ControlMode
	EffectiveMode timeline.ControlMode
	ModelID       string
	DraftMode     bool
	Warnings      []string
}

// ModeSupported reports whether rec can drive mode with imageRefs reference images.
func ModeSupported(mode timeline.ControlMode, rec capability.Record, imageRefs int) bool {
	switch mode {
	case timeline.ModeTextToVideo:
		return rec.TextToVideo
	case timeline.ModeImageToVideo:
		return rec.ImageFirstFrame
	case timeline.ModeKeyframes:
		return rec.ImageFirstAndLast
	case timeline.ModeMultiRef:
		limit, ok := rec.ReferenceLimit()
		return rec.ImageFirstFrame && ok && imageRefs <= limit
	default:
		return false
	}
}

// PickSupportedMode returns the first mode in FallbackOrder that rec supports
// without any reference images.
func PickSupportedMode(rec capability.Record) (timeline.ControlMode, error) {
	for _, mode := range FallbackOrder {
		if ModeSupported(mode, rec, 0) {
			return mode, nil
		}
	}
	return "", services.Wrap(services.ErrResolution, "generate", "pick control mode",
		fmt.Sprintf("no supported control mode for model %s", rec.ID), nil)
}

// TruncateRefs keeps the first limit ids. Lists within the bound are returned
// unchanged.
func TruncateRefs(ids []string, limit int) []string {
	if limit < 0 || len(ids) <= limit {
		return ids
	}
	return ids[:limit:limit]
}

// Resolve applies the capability policy of reg to shot. Steps run in a fixed
// order: model, fallback mode, effective mode, draft, audio, then reference
// truncation.
func Resolve(reg *capability.Registry, shot timeline.Shot, defaults Defaults) (Result, error) {
	out := shot.Clone()
	warnings := []string{}

	modelID := out.SeedancePlan.ModelID
	if modelID == "" {
		modelID = defaults.ModelID
	}
	rec, ok := reg.Lookup(modelID)
	if !ok {
		fallback, found := reg.Lookup(defaults.ModelID)
		if !found {
			return Result{}, services.Wrap(services.ErrConfiguration, "generate", "resolve model",
				fmt.Sprintf("default model_id %s is not registered", defaults.ModelID), nil)
		}
		warnings = append(warnings, fmt.Sprintf("unknown model_id=%s, fallback to %s", modelID, defaults.ModelID))
		modelID = defaults.ModelID
		rec = fallback
	}
	out.SeedancePlan.ModelID = modelID

	requested := out.RequestedMode()
	imageRefs := len(out.Refs.ImageAssetIDs)

	fallbackMode := out.RetryPolicy.FallbackMode
	if fallbackMode == "" {
		fallbackMode = defaults.FallbackMode
	}
	fallbackMode = timeline.ParseControlMode(string(fallbackMode))
	if !ModeSupported(fallbackMode, rec, imageRefs) {
		picked, err := PickSupportedMode(rec)
		if err != nil {
			return Result{}, services.Wrap(services.ErrResolution, "generate", "resolve shot",
				fmt.Sprintf("shot %s: no supported control mode for model %s", out.ShotID, modelID), nil)
		}
		fallbackMode = picked
		warnings = append(warnings, fmt.Sprintf("retry fallback_mode auto-adjusted to %s", fallbackMode))
		out.RetryPolicy.FallbackMode = fallbackMode
	}

	effective := requested
	if !ModeSupported(requested, rec, imageRefs) {
		effective = fallbackMode
		warnings = append(warnings, fmt.Sprintf("control_mode %s not supported by %s, switched to %s", requested, modelID, effective))
	}

	draft := defaults.DraftMode
	if out.SeedancePlan.DraftMode != nil {
		draft = *out.SeedancePlan.DraftMode
	}
	if draft && !rec.Draft {
		draft = false
		warnings = append(warnings, fmt.Sprintf("draft_mode disabled for model %s", modelID))
	}
	out.SeedancePlan.DraftMode = &draft

	if len(out.Refs.AudioAssetIDs) > 0 && !rec.Audio {
		out.Refs.AudioAssetIDs = []string{}
		warnings = append(warnings, fmt.Sprintf("audio refs removed: model %s has no audio support", modelID))
	}

	if limit, bounded := rec.ReferenceLimit(); bounded && imageRefs > limit {
		out.Refs.ImageAssetIDs = TruncateRefs(out.Refs.ImageAssetIDs, limit)
		warnings = append(warnings, fmt.Sprintf("image refs truncated to %d: model %s reference limit", limit, modelID))
	}

	return Result{
		Shot:          out,
		RequestedMode: requested,
		EffectiveMode: effective,
		ModelID:       modelID,
		DraftMode:     draft,
		Warnings:      warnings,
	}, nil
}
