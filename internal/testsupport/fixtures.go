package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ShotFixture is a compact description of one timeline shot.
type ShotFixture struct {
	ID           string
	Start        float64
	End          float64
	Mode         string
	ModelID      string
	PlanDuration float64
	ImageRefs    []string
	AudioRefs    []string
}

// SequentialShots builds n back-to-back shots of length seconds each.
func SequentialShots(n int, length float64, mode, modelID string) []ShotFixture {
	shots := make([]ShotFixture, n)
	for i := range shots {
		start := float64(i) * length
		shots[i] = ShotFixture{
			ID:           fmt.Sprintf("S%02d", i+1),
			Start:        start,
			End:          start + length,
			Mode:         mode,
			ModelID:      modelID,
			PlanDuration: length,
		}
	}
	return shots
}

// WriteTimeline writes a timeline.v1 JSON document at root/rel.
func WriteTimeline(t testing.TB, root, rel string, shots []ShotFixture) string {
	t.Helper()
	docShots := make([]map[string]any, 0, len(shots))
	for _, s := range shots {
		images := s.ImageRefs
		if images == nil {
			images = []string{}
		}
		audio := s.AudioRefs
		if audio == nil {
			audio = []string{}
		}
		plan := map[string]any{"duration_sec": s.PlanDuration}
		if s.ModelID != "" {
			plan["model_id"] = s.ModelID
		}
		docShots = append(docShots, map[string]any{
			"shot_id":       s.ID,
			"start_sec":     s.Start,
			"end_sec":       s.End,
			"duration_sec":  s.End - s.Start,
			"control_mode":  s.Mode,
			"refs":          map[string]any{"image_asset_ids": images, "audio_asset_ids": audio},
			"seedance_plan": plan,
			"retry_policy":  map[string]any{},
		})
	}
	return writeJSON(t, filepath.Join(root, rel), map[string]any{"version": "timeline.v1", "shots": docShots})
}

// WriteWorkflow writes a workflow.v1 descriptor at root/rel.
func WriteWorkflow(t testing.TB, root, rel string, doc map[string]any) string {
	t.Helper()
	return writeJSON(t, filepath.Join(root, rel), doc)
}

// WorkflowDoc returns a minimal descriptor referencing timelineSource.
func WorkflowDoc(runID, timelineSource string, generate map[string]any) map[string]any {
	if generate == nil {
		generate = map[string]any{}
	}
	return map[string]any{
		"run": map[string]any{"run_id": runID, "status": "pending", "started_at": nil, "finished_at": nil},
		"config": map[string]any{
			"plan":     map[string]any{"timeline_source": timelineSource},
			"generate": generate,
			"assemble": map[string]any{"output_name": "final.mp4"},
			"eval":     map[string]any{"score_threshold": 75},
		},
		"stages": []map[string]any{
			{"name": "plan", "status": "pending"},
			{"name": "generate", "status": "pending"},
			{"name": "assemble", "status": "pending"},
			{"name": "eval", "status": "pending"},
		},
	}
}

func writeJSON(t testing.TB, path string, doc any) string {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
