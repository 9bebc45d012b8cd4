package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"comicflow/internal/textutil"
)

const (
	// StateFileName is the persisted run-state document inside a run directory.
	StateFileName = "workflow_state.v1.json"
	// TimelineFileName is the validated timeline snapshot.
	TimelineFileName = "timeline.v1.json"
)

// Layout resolves paths inside one run's output tree. Artifact paths handed
// to the state document are made relative to ProjectRoot.
type Layout struct {
	ProjectRoot string
	RunDir      string
}

// NewLayout places the run directory for runID under outputsRoot.
func NewLayout(projectRoot, outputsRoot, runID string) Layout {
	return Layout{
		ProjectRoot: projectRoot,
		RunDir:      filepath.Join(outputsRoot, textutil.SanitizeFileName(runID)),
	}
}

// Ensure creates the standard subdirectories.
func (l Layout) Ensure() error {
	for _, sub := range []string{"shots", "assembly", "logs", "reports"} {
		if err := Mkdir(filepath.Join(l.RunDir, sub)); err != nil {
			return err
		}
	}
	return nil
}

func (l Layout) StatePath() string    { return filepath.Join(l.RunDir, StateFileName) }
func (l Layout) TimelinePath() string { return filepath.Join(l.RunDir, TimelineFileName) }
func (l Layout) ShotsDir() string     { return filepath.Join(l.RunDir, "shots") }
func (l Layout) AssemblyDir() string  { return filepath.Join(l.RunDir, "assembly") }
func (l Layout) LogsDir() string      { return filepath.Join(l.RunDir, "logs") }
func (l Layout) ReportsDir() string   { return filepath.Join(l.RunDir, "reports") }
func (l Layout) RunLogPath() string   { return filepath.Join(l.LogsDir(), "run.log") }

// ShotPath returns the placeholder artifact path for a shot.
func (l Layout) ShotPath(shotID string) string {
	return filepath.Join(l.ShotsDir(), textutil.SanitizeFileName(shotID)+".mp4")
}

// Report returns a path inside reports/.
func (l Layout) Report(name string) string { return filepath.Join(l.ReportsDir(), name) }

// Log returns a path inside logs/.
func (l Layout) Log(name string) string { return filepath.Join(l.LogsDir(), name) }

// Rel returns path relative to the project root, falling back to the input
// when no relative form exists.
func (l Layout) Rel(path string) string {
	if l.ProjectRoot == "" {
		return path
	}
	rel, err := filepath.Rel(l.ProjectRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// ListRunDirs returns run directories under outputsRoot that contain a state
// document, sorted by name.
func ListRunDirs(outputsRoot string) ([]string, error) {
	entries, err := os.ReadDir(outputsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read outputs directory %s: %w", outputsRoot, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(outputsRoot, e.Name())
		if _, err := os.Stat(filepath.Join(dir, StateFileName)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
