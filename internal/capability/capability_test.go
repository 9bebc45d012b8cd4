package capability_test

import (
	"testing"

	"comicflow/internal/capability"
	"comicflow/internal/config"
)

func TestDefaultRegistryTable(t *testing.T) {
	reg := capability.Default()
	if reg.Len() != 5 {
		t.Fatalf("expected 5 built-in models, got %d", reg.Len())
	}

	tests := []struct {
		id        string
		t2v       bool
		i2v       bool
		keyframes bool
		audio     bool
		draft     bool
		limit     int
		limited   bool
	}{
		{"doubao-seedance-1-5-pro-251215", true, true, true, true, true, 0, false},
		{"doubao-seedance-1-0-pro-250428", true, true, true, false, false, 0, false},
		{"doubao-seedance-1-0-pro-fast-250528", true, true, false, false, false, 0, false},
		{"doubao-seedance-1-0-lite-t2v-250219", true, false, false, false, false, 0, false},
		{"doubao-seedance-1-0-lite-i2v-250219", false, true, true, false, false, 4, true},
	}
	for _, tt := range tests {
		rec, ok := reg.Lookup(tt.id)
		if !ok {
			t.Fatalf("expected %s in registry", tt.id)
		}
		if rec.TextToVideo != tt.t2v || rec.ImageFirstFrame != tt.i2v || rec.ImageFirstAndLast != tt.keyframes {
			t.Fatalf("%s: mode flags = %+v", tt.id, rec)
		}
		if rec.Audio != tt.audio || rec.Draft != tt.draft {
			t.Fatalf("%s: audio/draft = %v/%v", tt.id, rec.Audio, rec.Draft)
		}
		limit, limited := rec.ReferenceLimit()
		if limit != tt.limit || limited != tt.limited {
			t.Fatalf("%s: reference limit = %d,%v want %d,%v", tt.id, limit, limited, tt.limit, tt.limited)
		}
	}
}

func TestLookupUnknownModel(t *testing.T) {
	if _, ok := capability.Default().Lookup("nope"); ok {
		t.Fatal("expected unknown model to be absent")
	}
	var nilReg *capability.Registry
	if _, ok := nilReg.Lookup("doubao-seedance-1-5-pro-251215"); ok {
		t.Fatal("nil registry should report absence")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := capability.Default()
	rec, _ := reg.Lookup("doubao-seedance-1-0-lite-t2v-250219")
	rec.ImageFirstFrame = true

	again, _ := reg.Lookup("doubao-seedance-1-0-lite-t2v-250219")
	if again.ImageFirstFrame {
		t.Fatal("registry record mutated through lookup copy")
	}
}

func TestFromConfigMergesModels(t *testing.T) {
	zero := 2
	cfg := config.Default()
	cfg.Models = []config.Model{
		{ID: "custom-keyframes", TextToVideo: true, ImageFirstAndLast: true},
		{ID: "doubao-seedance-1-0-lite-t2v-250219", Label: "Patched", TextToVideo: true, ImageFirstFrame: true, ReferenceImagesMax: &zero},
	}

	reg := capability.FromConfig(&cfg)
	if reg.Len() != 6 {
		t.Fatalf("expected 6 models, got %d", reg.Len())
	}
	custom, ok := reg.Lookup("custom-keyframes")
	if !ok || custom.Label != "custom-keyframes" {
		t.Fatalf("custom model = %+v, ok=%v", custom, ok)
	}
	patched, _ := reg.Lookup("doubao-seedance-1-0-lite-t2v-250219")
	if patched.Label != "Patched" || !patched.ImageFirstFrame {
		t.Fatalf("override not applied: %+v", patched)
	}
	if limit, ok := patched.ReferenceLimit(); !ok || limit != 2 {
		t.Fatalf("override limit = %d,%v", limit, ok)
	}

	models := reg.Models()
	if models[3].ID != "doubao-seedance-1-0-lite-t2v-250219" || models[5].ID != "custom-keyframes" {
		t.Fatalf("unexpected order: %v", ids(models))
	}
}

func ids(records []capability.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
