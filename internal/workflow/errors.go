package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"comicflow/internal/services"
)

// RunError is returned by Manager.Execute when a stage fails.
type RunError struct {
	RunID string
	Stage StageName
	Info  StageError
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: stage %s failed (%s): %s", e.RunID, e.Stage, e.Info.Code, e.Info.Message)
}

func (e *RunError) Unwrap() error { return e.Err }

// NewStageError converts err into the structured record for stage name.
func NewStageError(name StageName, err error) StageError {
	message := "stage failed without error detail"
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			message = "run cancelled"
		case errors.Is(err, context.DeadlineExceeded):
			message = "run deadline exceeded"
		default:
			if m := strings.TrimSpace(services.Details(err).Message); m != "" {
				message = m
			}
		}
	}
	return StageError{
		Code:      name.FailureCode(),
		Message:   message,
		Retryable: name.Retryable(),
	}
}
