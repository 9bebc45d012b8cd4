package workflow

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"comicflow/internal/stage"
)

// StageName identifies one of the four fixed stages.
type StageName string

const (
	StagePlan     StageName = "plan"
	StageGenerate StageName = "generate"
	StageAssemble StageName = "assemble"
	StageEval     StageName = "eval"
)

// StageOrder is the fixed execution order.
var StageOrder = []StageName{StagePlan, StageGenerate, StageAssemble, StageEval}

// ParseStageName validates a raw stage name.
func ParseStageName(raw string) (StageName, bool) {
	name := StageName(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(StageOrder, name) {
		return name, true
	}
	return "", false
}

var titleCaser = cases.Title(language.Und)

// Label returns a display label such as "Generate".
func (n StageName) Label() string {
	return titleCaser.String(string(n))
}

// FailureCode is the stable error code recorded when the stage fails.
func (n StageName) FailureCode() string {
	return strings.ToUpper(string(n)) + "_FAILED"
}

// Retryable reports whether failures of this stage are worth retrying. Plan
// failures come from bad or missing input and are not.
func (n StageName) Retryable() bool {
	return n != StagePlan
}

// Status is the lifecycle state shared by runs and stages.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Artifact is a produced file or directory, relative to the project root.
type Artifact = stage.Artifact

// StageError is the structured failure record attached to a failed stage.
type StageError struct {
	Code      string `json:"code" yaml:"code"`
	Message   string `json:"message" yaml:"message"`
	Retryable bool   `json:"retryable" yaml:"retryable"`
}

// Stage is one stage record in the run state.
type Stage struct {
	Name       StageName      `json:"name" yaml:"name"`
	Status     Status         `json:"status" yaml:"status"`
	StartedAt  *time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time     `json:"finished_at" yaml:"finished_at"`
	Artifacts  []Artifact     `json:"artifacts" yaml:"artifacts"`
	Outputs    map[string]any `json:"outputs" yaml:"outputs"`
	Error      *StageError    `json:"error" yaml:"error"`
}

// RunMeta carries run identity and overall status.
type RunMeta struct {
	RunID      string     `json:"run_id" yaml:"run_id"`
	Status     Status     `json:"status" yaml:"status"`
	StartedAt  *time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at" yaml:"finished_at"`
}

// Run is the top-level aggregate persisted as workflow_state.v1.json.
type Run struct {
	Meta   RunMeta `json:"run" yaml:"run"`
	Config Config  `json:"config" yaml:"config"`
	Stages []Stage `json:"stages" yaml:"stages"`
}

// Stage returns the stage record for name. Normalized runs always carry all
// four stages.
func (r *Run) Stage(name StageName) *Stage {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// FailedStage returns the first failed stage, if any.
func (r *Run) FailedStage() *Stage {
	for i := range r.Stages {
		if r.Stages[i].Status == StatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

func newPendingStage(name StageName) Stage {
	return Stage{
		Name:      name,
		Status:    StatusPending,
		Artifacts: []Artifact{},
		Outputs:   map[string]any{},
	}
}
