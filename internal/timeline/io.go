package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"comicflow/internal/runstore"
	"comicflow/internal/services"
)

// IsYAML reports whether path should be decoded as YAML.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads a timeline document. A missing or malformed source is a
// configuration error.
func Load(path string) (Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "", "load timeline", "read timeline source", err)
	}
	tl, err := Decode(data, IsYAML(path))
	if err != nil {
		return Timeline{}, services.Wrap(services.ErrConfiguration, "", "load timeline", fmt.Sprintf("parse %s", filepath.Base(path)), err)
	}
	return tl, nil
}

// Decode parses a timeline document from raw bytes.
func Decode(data []byte, asYAML bool) (Timeline, error) {
	var tl Timeline
	if asYAML {
		if err := yaml.Unmarshal(data, &tl); err != nil {
			return Timeline{}, err
		}
		return tl, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&tl); err != nil {
		return Timeline{}, err
	}
	return tl, nil
}

// Encode renders the timeline as indented JSON with a trailing newline.
func (t Timeline) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes the timeline snapshot atomically.
func Save(path string, t Timeline) error {
	data, err := t.Encode()
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	return runstore.WriteBytes(path, data)
}
