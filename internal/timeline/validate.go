package timeline

import (
	"fmt"
	"math"

	"comicflow/internal/services"
	"comicflow/internal/textutil"
)

const (
	// MinPlanDuration and MaxPlanDuration bound a shot's generation duration in seconds.
	MinPlanDuration = 4.0
	MaxPlanDuration = 15.0

	durationTolerance = 1e-6
)

// ValidationError identifies the first shot that broke a timeline invariant.
type ValidationError struct {
	ShotID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ShotID == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.ShotID)
}

func (e *ValidationError) Unwrap() error { return services.ErrValidation }

// Validate checks ordering, non-overlap, and duration invariants in a single
// forward pass and stops at the first violation. Shots must already be sorted
// by start offset.
func Validate(t Timeline) error {
	if len(t.Shots) == 0 {
		return &ValidationError{Reason: "timeline has no shots"}
	}

	// Keyed by the sanitized id: distinct ids that share an artifact file
	// name would overwrite each other under shots/.
	seen := make(map[string]struct{}, len(t.Shots))
	lastEnd := math.Inf(-1)
	for idx, shot := range t.Shots {
		if shot.ShotID == "" {
			return &ValidationError{ShotID: fmt.Sprintf("#%d", idx+1), Reason: "missing shot_id"}
		}
		file := textutil.SanitizeFileName(shot.ShotID)
		if file == "" || file == "." || file == ".." {
			return &ValidationError{ShotID: shot.ShotID, Reason: "unusable shot_id"}
		}
		if _, dup := seen[file]; dup {
			return &ValidationError{ShotID: shot.ShotID, Reason: "duplicate shot_id"}
		}
		seen[file] = struct{}{}

		if !finite(shot.StartSec, shot.EndSec, shot.DurationSec, shot.SeedancePlan.DurationSec) {
			return &ValidationError{ShotID: shot.ShotID, Reason: "non-finite timing in shot"}
		}
		if shot.EndSec <= shot.StartSec {
			return &ValidationError{ShotID: shot.ShotID, Reason: "invalid shot range"}
		}
		if math.Abs((shot.EndSec-shot.StartSec)-shot.DurationSec) > durationTolerance {
			return &ValidationError{ShotID: shot.ShotID, Reason: "duration mismatch"}
		}
		if shot.StartSec < lastEnd {
			return &ValidationError{ShotID: shot.ShotID, Reason: "overlap detected at shot"}
		}
		if d := shot.SeedancePlan.DurationSec; d < MinPlanDuration || d > MaxPlanDuration {
			return &ValidationError{ShotID: shot.ShotID, Reason: "seedance duration out of range in shot"}
		}
		lastEnd = shot.EndSec
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
