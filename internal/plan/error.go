package plan

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes plan failures.
type ErrorCode string

const (
	// ErrCodeTargetNotFound indicates a selector or anchor resolved to
	// no existing block.
	ErrCodeTargetNotFound ErrorCode = "TARGET_NOT_FOUND"

	// ErrCodeInvalidTarget indicates malformed step targeting.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"

	// ErrCodeInvalidInput indicates malformed step arguments or
	// replacement content.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeSpanFragmented indicates a multi-block match's
	// inter-segment gaps changed within the same execution.
	ErrCodeSpanFragmented ErrorCode = "SPAN_FRAGMENTED"

	// ErrCodeRevisionChanged indicates an optimistic-concurrency
	// violation: the document advanced past the compiled revision.
	ErrCodeRevisionChanged ErrorCode = "REVISION_CHANGED_SINCE_COMPILE"

	// ErrCodePreconditionFailed indicates one or more assert steps
	// failed; the transaction was discarded.
	ErrCodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"

	// ErrCodeUnsupportedOperation indicates no executor is registered
	// for a step's operation name.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodeInternal indicates an invariant violation presumed to be
	// an engine bug, never a user-facing condition.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is the typed failure every engine error surfaces as. Errors
// are never caught-and-ignored inside the engine: any Error aborts the
// whole plan and guarantees the transaction is never committed.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// StepID identifies the failing step, when one is responsible.
	StepID string `json:"step_id,omitempty"`

	// Details carries structured diagnostic context.
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s: %s (step=%s)", e.Code, e.Message, e.StepID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep returns the error with the step id set.
func (e *Error) WithStep(stepID string) *Error {
	e.StepID = stepID
	return e
}

// WithDetail returns the error with one detail key set.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// AsError unwraps a plan Error from an error chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCode reports whether err is a plan Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	if pe, ok := AsError(err); ok {
		return pe.Code == code
	}
	return false
}

// IsRevisionError reports an optimistic-concurrency violation.
func IsRevisionError(err error) bool {
	return IsCode(err, ErrCodeRevisionChanged)
}

// IsPreconditionError reports a failed assert phase.
func IsPreconditionError(err error) bool {
	return IsCode(err, ErrCodePreconditionFailed)
}
