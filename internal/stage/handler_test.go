package stage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"comicflow/internal/runstore"
)

func TestResultRecordsRelativeArtifacts(t *testing.T) {
	root := t.TempDir()
	env := Env{RunID: "r1", Layout: runstore.NewLayout(root, filepath.Join(root, "outputs"), "r1")}

	var res Result
	res.AddArtifact(env, "timeline_json", env.Layout.TimelinePath())
	res.SetOutput("timeline", "outputs/r1/timeline.v1.json")

	if len(res.Artifacts) != 1 || res.Artifacts[0].Path != "outputs/r1/timeline.v1.json" {
		t.Fatalf("artifacts = %+v", res.Artifacts)
	}
	if res.Outputs["timeline"] != "outputs/r1/timeline.v1.json" {
		t.Fatalf("outputs = %v", res.Outputs)
	}
}

func TestEnvNowTruncatesToSecondsUTC(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 890, time.FixedZone("x", 3600))
	env := Env{Clock: func() time.Time { return fixed }}
	if got := env.Timestamp(); got != "2026-03-04T04:06:07Z" {
		t.Fatalf("Timestamp = %q", got)
	}
	if (Env{}).Now().IsZero() {
		t.Fatal("default clock returned zero time")
	}
}

func TestHealthConstructors(t *testing.T) {
	if h := Healthy("generate"); !h.Ready || h.Name != "generate" {
		t.Fatalf("Healthy = %+v", h)
	}
	if h := Unhealthy("generate", "unknown engine"); h.Ready || h.Detail != "unknown engine" {
		t.Fatalf("Unhealthy = %+v", h)
	}
}

func TestHealthSummary(t *testing.T) {
	tests := []struct {
		h    Health
		want string
	}{
		{Healthy("plan"), "ready"},
		{Unhealthy("eval", "scorer offline"), "scorer offline"},
		{Unhealthy("eval", ""), "not ready"},
		{CheckErr("generate", errors.New("no engine")), "no engine"},
		{CheckErr("generate", nil), "ready"},
	}
	for _, tt := range tests {
		if got := tt.h.Summary(); got != tt.want {
			t.Errorf("%s summary = %q, want %q", tt.h.Name, got, tt.want)
		}
	}
}
