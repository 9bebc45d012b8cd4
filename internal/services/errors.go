package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrResolution    = errors.New("resolution error")
	ErrExecution     = errors.New("execution error")
	ErrNotFound      = errors.New("not found")
)

// ErrorKind names the taxonomy bucket an error belongs to.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindValidation    ErrorKind = "validation"
	KindResolution    ErrorKind = "resolution"
	KindExecution     ErrorKind = "execution"
	KindNotFound      ErrorKind = "not_found"
	KindUnknown       ErrorKind = "unknown"
)

// stageError carries the stage context of a wrapped failure so Details can
// recover it without parsing the message.
type stageError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *stageError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.marker, detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker, detail)
}

func (e *stageError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Wrap builds an error that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrExecution
	}
	return &stageError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// ErrorDetails is the structured view of an error used for logging and for
// the persisted stage error record.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Cause     error
}

// Details extracts structured information from err. Errors that were not
// produced by Wrap report their full text as the message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	details := ErrorDetails{Kind: Kind(err), Message: strings.TrimSpace(err.Error())}
	var se *stageError
	if errors.As(err, &se) {
		details.Stage = se.stage
		details.Operation = se.operation
		details.Cause = se.cause
		msg := se.message
		if se.cause != nil {
			if msg != "" {
				msg = msg + ": " + se.cause.Error()
			} else {
				msg = se.cause.Error()
			}
		}
		if msg != "" {
			details.Message = msg
		}
	}
	return details
}

// Kind classifies err against the sentinel markers.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrResolution):
		return KindResolution
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExecution):
		return KindExecution
	default:
		return KindUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
