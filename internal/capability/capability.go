package capability

import (
	"strings"

	"comicflow/internal/config"
)

// Record describes what a generation model can do. Records are values; the
// registry hands out copies.
type Record struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	TextToVideo       bool   `json:"t2v"`
	ImageFirstFrame   bool   `json:"i2v_first"`
	ImageFirstAndLast bool   `json:"i2v_first_last"`
	Audio             bool   `json:"audio"`
	Draft             bool   `json:"draft"`
	// MaxReferenceImages is only meaningful when HasReferenceLimit is set.
	MaxReferenceImages int  `json:"reference_images_max"`
	HasReferenceLimit  bool `json:"has_reference_limit"`
}

// ReferenceLimit reports the maximum reference image count, if bounded.
func (r Record) ReferenceLimit() (int, bool) {
	return r.MaxReferenceImages, r.HasReferenceLimit
}

// SupportsAnyMode reports whether at least one control mode flag is set.
func (r Record) SupportsAnyMode() bool {
	return r.TextToVideo || r.ImageFirstFrame || r.ImageFirstAndLast
}

// Registry is an immutable model id to capability mapping.
type Registry struct {
	byID  map[string]Record
	order []string
}

// NewRegistry builds a registry from records. Later records replace earlier
// ones with the same id while keeping the original position.
func NewRegistry(records ...Record) *Registry {
	reg := &Registry{byID: make(map[string]Record, len(records))}
	for _, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			continue
		}
		rec.ID = id
		if _, exists := reg.byID[id]; !exists {
			reg.order = append(reg.order, id)
		}
		reg.byID[id] = rec
	}
	return reg
}

// Lookup returns the record for modelID. A miss is not an error; callers
// decide how to treat unknown models.
func (r *Registry) Lookup(modelID string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	rec, ok := r.byID[strings.TrimSpace(modelID)]
	return rec, ok
}

// Models lists records in registration order.
func (r *Registry) Models() []Record {
	if r == nil {
		return nil
	}
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

var builtin = []Record{
	{ID: "doubao-seedance-1-5-pro-251215", Label: "Seedance 1.5 Pro", TextToVideo: true, ImageFirstFrame: true, ImageFirstAndLast: true, Audio: true, Draft: true},
	{ID: "doubao-seedance-1-0-pro-250428", Label: "Seedance 1.0 Pro", TextToVideo: true, ImageFirstFrame: true, ImageFirstAndLast: true},
	{ID: "doubao-seedance-1-0-pro-fast-250528", Label: "Seedance 1.0 Pro Fast", TextToVideo: true, ImageFirstFrame: true},
	{ID: "doubao-seedance-1-0-lite-t2v-250219", Label: "Seedance 1.0 Lite T2V", TextToVideo: true},
	{ID: "doubao-seedance-1-0-lite-i2v-250219", Label: "Seedance 1.0 Lite I2V", ImageFirstFrame: true, ImageFirstAndLast: true, MaxReferenceImages: 4, HasReferenceLimit: true},
}

// Default returns the built-in Seedance registry.
func Default() *Registry {
	return NewRegistry(builtin...)
}

// FromConfig merges [[models]] entries over the built-in table.
func FromConfig(cfg *config.Config) *Registry {
	records := append([]Record(nil), builtin...)
	if cfg == nil {
		return NewRegistry(records...)
	}
	for _, model := range cfg.Models {
		records = append(records, FromModel(model))
	}
	return NewRegistry(records...)
}

// FromModel converts a config model declaration into a record.
func FromModel(model config.Model) Record {
	rec := Record{
		ID:                strings.TrimSpace(model.ID),
		Label:             strings.TrimSpace(model.Label),
		TextToVideo:       model.TextToVideo,
		ImageFirstFrame:   model.ImageFirstFrame,
		ImageFirstAndLast: model.ImageFirstAndLast,
		Audio:             model.Audio,
		Draft:             model.Draft,
	}
	if model.ReferenceImagesMax != nil {
		rec.MaxReferenceImages = *model.ReferenceImagesMax
		rec.HasReferenceLimit = true
	}
	if rec.Label == "" {
		rec.Label = rec.ID
	}
	return rec
}
