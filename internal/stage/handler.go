package stage

import (
	"log/slog"
	"time"

	"comicflow/internal/runstore"
)

// Artifact names one file or directory a stage produced. Path is relative
// to the project root.
type Artifact struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Result is what a stage handler reports on success.
type Result struct {
	Artifacts []Artifact
	Outputs   map[string]any
}

// AddArtifact records path under name, relative to the project root.
func (r *Result) AddArtifact(env Env, name, path string) {
	r.Artifacts = append(r.Artifacts, Artifact{Name: name, Path: env.Layout.Rel(path)})
}

// SetOutput records a named output.
func (r *Result) SetOutput(key string, value any) {
	if r.Outputs == nil {
		r.Outputs = make(map[string]any)
	}
	r.Outputs[key] = value
}

// Env is the per-run context handed to every stage handler.
type Env struct {
	RunID  string
	Layout runstore.Layout
	Clock  func() time.Time
}

// Now returns the current UTC time truncated to seconds.
func (e Env) Now() time.Time {
	clock := e.Clock
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Second)
}

// Timestamp formats Now as RFC 3339.
func (e Env) Timestamp() string {
	return e.Now().Format(time.RFC3339)
}

// LoggerAware handlers receive a stage-scoped logger before each execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
