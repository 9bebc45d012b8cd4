package workflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition reports a lifecycle transition the state machine forbids.
var ErrInvalidTransition = errors.New("invalid stage transition")

func stamp(now time.Time) *time.Time {
	t := now.UTC().Truncate(time.Second)
	return &t
}

// Start moves a pending stage to running and stamps its start time.
func (s *Stage) Start(now time.Time) error {
	if s.Status != StatusPending {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, s.Name, s.Status, StatusRunning)
	}
	s.Status = StatusRunning
	s.StartedAt = stamp(now)
	s.FinishedAt = nil
	s.Error = nil
	return nil
}

// Complete records a successful finish with the produced artifacts and outputs.
func (s *Stage) Complete(now time.Time, artifacts []Artifact, outputs map[string]any) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, s.Name, s.Status, StatusCompleted)
	}
	s.Status = StatusCompleted
	s.FinishedAt = stamp(now)
	if artifacts != nil {
		s.Artifacts = artifacts
	}
	if s.Outputs == nil {
		s.Outputs = map[string]any{}
	}
	for k, v := range outputs {
		s.Outputs[k] = v
	}
	s.Error = nil
	return nil
}

// Fail records a failed finish with a structured error.
func (s *Stage) Fail(now time.Time, stageErr StageError) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, s.Name, s.Status, StatusFailed)
	}
	s.Status = StatusFailed
	s.FinishedAt = stamp(now)
	errCopy := stageErr
	s.Error = &errCopy
	return nil
}

// Begin marks the run as running.
func (r *Run) Begin(now time.Time) {
	r.Meta.Status = StatusRunning
	r.Meta.StartedAt = stamp(now)
	r.Meta.FinishedAt = nil
}

// Finish stamps the run with a terminal status.
func (r *Run) Finish(now time.Time, status Status) {
	r.Meta.Status = status
	r.Meta.FinishedAt = stamp(now)
}
