// Package planerr defines the typed, serializable errors the engine reports
// across the library boundary. Hosting layers switch on the machine Code;
// the Recoverable flag says whether retrying the same call can succeed.
package planerr

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error category.
type Code string

const (
	CodeInvalidInput            Code = "invalid_input"
	CodeMissingState            Code = "missing_state"
	CodeStateValidationFailed   Code = "state_validation_failed"
	CodeStaleState              Code = "stale_state"
	CodePlanGenerationWeekly    Code = "plan_generation_failed_weekly"
	CodePlanGenerationDaily     Code = "plan_generation_failed_daily"
	CodeEmptyPlan               Code = "empty_plan"
	CodeExecutionFailed         Code = "execution_failed"
	CodeMaxRetriesExceeded      Code = "max_retries_exceeded"
	CodeCollaboratorUnavailable Code = "collaborator_unavailable"
	CodeInternal                Code = "internal_error"
)

// Error is the only error type that crosses the module boundary.
type Error struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	// Detail carries optional context (task ID, validation issue, ...).
	Detail string `json:"detail,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a boundary error.
func New(code Code, recoverable bool, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Recoverable: recoverable}
}

// Wrap attaches a cause to a boundary error, keeping its message visible.
func Wrap(code Code, recoverable bool, cause error, format string, args ...interface{}) *Error {
	e := New(code, recoverable, format, args...)
	e.cause = cause
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// WithDetail sets the detail string and returns the error for chaining.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// CodeOf extracts the machine code from any error, or CodeInternal if the
// error was never classified.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

// IsRecoverable reports whether the caller may retry the same call.
func IsRecoverable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Recoverable
	}
	return false
}
