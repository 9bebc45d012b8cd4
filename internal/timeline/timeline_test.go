package timeline_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comicflow/internal/services"
	"comicflow/internal/timeline"
)

func shot(id string, start, end, planDuration float64) timeline.Shot {
	return timeline.Shot{
		ShotID:       id,
		StartSec:     start,
		EndSec:       end,
		DurationSec:  end - start,
		ControlMode:  timeline.ModeImageToVideo,
		SeedancePlan: timeline.GenerationPlan{DurationSec: planDuration},
	}
}

func TestValidateAcceptsSortedTimeline(t *testing.T) {
	tl := timeline.Timeline{Shots: []timeline.Shot{
		shot("S01", 0, 5, 5),
		shot("S02", 5, 10, 4),
		shot("S03", 12, 27, 15),
	}}
	if err := timeline.Validate(tl); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateToleratesFloatingDurations(t *testing.T) {
	s := shot("S01", 0.1, 0.3+4.8, 5)
	s.DurationSec = 5.0
	if err := timeline.Validate(timeline.Timeline{Shots: []timeline.Shot{s}}); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	mismatch := shot("S02", 5, 10, 5)
	mismatch.DurationSec = 4.5
	infiniteEnd := shot("S02", 5, math.Inf(1), 5)
	infiniteEnd.DurationSec = math.Inf(1)

	tests := []struct {
		name    string
		shots   []timeline.Shot
		shotID  string
		message string
	}{
		{"empty", nil, "", "timeline has no shots"},
		{"inverted range", []timeline.Shot{shot("S01", 0, 5, 5), {ShotID: "S02", StartSec: 10, EndSec: 10, SeedancePlan: timeline.GenerationPlan{DurationSec: 5}}}, "S02", "invalid shot range: S02"},
		{"duration mismatch", []timeline.Shot{shot("S01", 0, 5, 5), mismatch}, "S02", "duration mismatch: S02"},
		{"overlap", []timeline.Shot{shot("S01", 0, 5, 5), shot("S02", 4, 9, 5)}, "S02", "overlap detected at shot: S02"},
		{"unsorted", []timeline.Shot{shot("S01", 10, 15, 5), shot("S02", 0, 5, 5)}, "S02", "overlap detected at shot: S02"},
		{"plan too short", []timeline.Shot{shot("S01", 0, 5, 3.9)}, "S01", "seedance duration out of range in shot: S01"},
		{"plan too long", []timeline.Shot{shot("S01", 0, 5, 15.5)}, "S01", "seedance duration out of range in shot: S01"},
		{"duplicate id", []timeline.Shot{shot("S01", 0, 5, 5), shot("S01", 5, 10, 5)}, "S01", "duplicate shot_id: S01"},
		{"ids sharing a file name", []timeline.Shot{shot("A/1", 0, 5, 5), shot("A:1", 5, 10, 5)}, "A:1", "duplicate shot_id: A:1"},
		{"id sanitized to nothing", []timeline.Shot{shot("??", 0, 5, 5)}, "??", "unusable shot_id: ??"},
		{"dot-dot id", []timeline.Shot{shot("..", 0, 5, 5)}, "..", "unusable shot_id: .."},
		{"non-finite plan duration", []timeline.Shot{shot("S01", 0, 5, math.NaN())}, "S01", "non-finite timing in shot: S01"},
		{"non-finite end", []timeline.Shot{shot("S01", 0, 5, 5), infiniteEnd}, "S02", "non-finite timing in shot: S02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := timeline.Validate(timeline.Timeline{Shots: tt.shots})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *timeline.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.ShotID != tt.shotID {
				t.Fatalf("shot id = %q, want %q", verr.ShotID, tt.shotID)
			}
			if err.Error() != tt.message {
				t.Fatalf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestValidateStopsAtFirstViolation(t *testing.T) {
	tl := timeline.Timeline{Shots: []timeline.Shot{
		shot("S01", 0, 5, 2),
		shot("S02", 1, 6, 5),
	}}
	var verr *timeline.ValidationError
	if err := timeline.Validate(tl); !errors.As(err, &verr) || verr.ShotID != "S01" {
		t.Fatalf("expected first violation on S01, got %v", err)
	}
}

func TestRequestedModeDefaultsToTextToVideo(t *testing.T) {
	if got := (timeline.Shot{}).RequestedMode(); got != timeline.ModeTextToVideo {
		t.Fatalf("RequestedMode = %q", got)
	}
	if got := (timeline.Shot{ControlMode: " Keyframes "}).RequestedMode(); got != timeline.ModeKeyframes {
		t.Fatalf("RequestedMode = %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	draft := true
	orig := shot("S01", 0, 5, 5)
	orig.Refs.ImageAssetIDs = []string{"a", "b"}
	orig.Refs.AudioAssetIDs = []string{"x"}
	orig.SeedancePlan.DraftMode = &draft
	tl := timeline.Timeline{Metadata: map[string]any{"k": "v"}, Shots: []timeline.Shot{orig}}

	clone := tl.Clone()
	clone.Shots[0].Refs.ImageAssetIDs[0] = "changed"
	clone.Shots[0].Refs.AudioAssetIDs = nil
	*clone.Shots[0].SeedancePlan.DraftMode = false
	clone.Metadata["k"] = "changed"

	if tl.Shots[0].Refs.ImageAssetIDs[0] != "a" || len(tl.Shots[0].Refs.AudioAssetIDs) != 1 {
		t.Fatalf("refs aliased: %+v", tl.Shots[0].Refs)
	}
	if !*tl.Shots[0].SeedancePlan.DraftMode {
		t.Fatal("draft flag aliased")
	}
	if tl.Metadata["k"] != "v" {
		t.Fatal("metadata aliased")
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "timeline.json")
	jsonDoc := `{"version":"timeline.v1","shots":[{"shot_id":"S01","start_sec":0,"end_sec":5,"duration_sec":5,"control_mode":"i2v","refs":{"image_asset_ids":["img1"],"audio_asset_ids":[]},"seedance_plan":{"model_id":"m","duration_sec":5,"draft_mode":false},"retry_policy":{"fallback_mode":"t2v"}}]}`
	if err := os.WriteFile(jsonPath, []byte(jsonDoc), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	yamlPath := filepath.Join(dir, "timeline.yaml")
	yamlDoc := strings.Join([]string{
		"version: timeline.v1",
		"shots:",
		"  - shot_id: S01",
		"    start_sec: 0",
		"    end_sec: 5",
		"    duration_sec: 5",
		"    control_mode: i2v",
		"    refs:",
		"      image_asset_ids: [img1]",
		"      audio_asset_ids: []",
		"    seedance_plan:",
		"      model_id: m",
		"      duration_sec: 5",
		"      draft_mode: false",
		"    retry_policy:",
		"      fallback_mode: t2v",
		"",
	}, "\n")
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		tl, err := timeline.Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", path, err)
		}
		if len(tl.Shots) != 1 {
			t.Fatalf("%s: shots = %d", path, len(tl.Shots))
		}
		s := tl.Shots[0]
		if s.ControlMode != timeline.ModeImageToVideo || s.RetryPolicy.FallbackMode != timeline.ModeTextToVideo {
			t.Fatalf("%s: modes = %q/%q", path, s.ControlMode, s.RetryPolicy.FallbackMode)
		}
		if s.SeedancePlan.DraftMode == nil || *s.SeedancePlan.DraftMode {
			t.Fatalf("%s: draft flag = %v", path, s.SeedancePlan.DraftMode)
		}
		if len(s.Refs.ImageAssetIDs) != 1 || s.Refs.ImageAssetIDs[0] != "img1" {
			t.Fatalf("%s: refs = %+v", path, s.Refs)
		}
	}
}

func TestValidateRejectsNaNFromYAML(t *testing.T) {
	doc := strings.Join([]string{
		"shots:",
		"  - shot_id: S01",
		"    start_sec: 0",
		"    end_sec: 5",
		"    duration_sec: 5",
		"    seedance_plan:",
		"      duration_sec: .nan",
		"",
	}, "\n")
	tl, err := timeline.Decode([]byte(doc), true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := timeline.Validate(tl); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for NaN plan duration, got %v", err)
	}
}

func TestLoadMissingSourceIsConfigurationError(t *testing.T) {
	_, err := timeline.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist cause, got %v", err)
	}
}

func TestLoadMalformedSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := timeline.Load(path); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "timeline.v1.json")
	tl := timeline.Timeline{Version: "timeline.v1", Shots: []timeline.Shot{shot("S01", 0, 5, 5)}}
	if err := timeline.Save(path, tl); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := timeline.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Version != "timeline.v1" || loaded.Shots[0].ShotID != "S01" {
		t.Fatalf("loaded = %+v", loaded)
	}
}
