package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnsupportedMode = errors.New("unsupported mode")
	ErrSlideMismatch   = errors.New("slide images and speech do not align")
	ErrJobTerminal     = errors.New("job already finished")
	ErrJobConflict     = errors.New("job id already in use")
)

// StepError is the only error returned across the orchestrator boundary. It
// names the stage that failed and the job it belongs to. JobID is empty only
// for validation failures raised before a job id was assigned.
type StepError struct {
	Step    Stage
	JobID   string
	Message string
	Cause   error
}

// NewStepError builds a StepError; message falls back to the cause text.
func NewStepError(step Stage, jobID, message string, cause error) *StepError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &StepError{Step: step, JobID: jobID, Message: message, Cause: cause}
}

func (e *StepError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.JobID == "" {
		return fmt.Sprintf("%s: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("%s [job %s]: %s", e.Step, e.JobID, e.Message)
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// AsStepError extracts a StepError from err's chain.
func AsStepError(err error) (*StepError, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr, true
	}
	return nil, false
}

// IsValidation reports whether err was raised by request validation.
func IsValidation(err error) bool {
	if stepErr, ok := AsStepError(err); ok {
		return stepErr.Step == StageValidation
	}
	return errors.Is(err, ErrValidation)
}
