package backtest

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies engine failures. The set is closed: every error the
// engine returns carries exactly one of these kinds.
type ErrorKind string

const (
	// KindConfiguration covers unsupported rule/filter/weighting tags and
	// non-positive n. Raised before any data access.
	KindConfiguration ErrorKind = "configuration"

	// KindDataUnavailable covers unknown fields and dates with no
	// observations. Raised during iteration, aborts the run.
	KindDataUnavailable ErrorKind = "data_unavailable"

	// KindPromptParse covers free text that cannot be mapped to a supported
	// configuration. Raised before the orchestrator is invoked.
	KindPromptParse ErrorKind = "prompt_parse"

	// KindTimeout covers caller-imposed deadlines that abort a run.
	KindTimeout ErrorKind = "timeout"
)

// Error is the engine's error type. A backtest either completes fully or
// yields exactly one of these.
type Error struct {
	Kind    ErrorKind
	Message string

	// Date identifies the offending rebalance date for failures raised
	// mid-iteration. Zero otherwise.
	Date time.Time

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	if !e.Date.IsZero() {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Date.Format(DateLayout), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewDataUnavailableError creates a data-unavailable error for a date.
// A zero date means the failure is not tied to a specific rebalance date.
func NewDataUnavailableError(date time.Time, format string, args ...interface{}) *Error {
	return &Error{Kind: KindDataUnavailable, Date: date, Message: fmt.Sprintf(format, args...)}
}

// NewPromptParseError creates a prompt-parse error.
func NewPromptParseError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPromptParse, Message: fmt.Sprintf(format, args...)}
}

// NewTimeoutError creates a timeout error wrapping the context cause.
func NewTimeoutError(date time.Time, cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Date:    date,
		Message: "backtest aborted before completion",
		Err:     cause,
	}
}

// KindOf returns the ErrorKind of err, or "" when err is not an engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
