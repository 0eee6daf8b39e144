package errors

import "fmt"

// ExternalCallError is the failure of a call to an outside system: the
// model CLI, git, or the file system of a remote checkout.
type ExternalCallError struct {
	// Service names the system that was called ("claude", "git").
	Service string
	// Op describes the call.
	Op string
	// Permanent marks failures that a retry cannot fix, such as a missing binary.
	Permanent bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// MalformedResponseError indicates a model response that could not be
// parsed or validated.
type MalformedResponseError struct {
	// Stage is the processing step that rejected the response.
	Stage string
	// Reason explains what was wrong.
	Reason string
	// Response is the raw text, kept for debugging.
	Response string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("malformed response in %s: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

// Malformed builds a MalformedResponseError.
func Malformed(stage, response, format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{
		Stage:    stage,
		Reason:   fmt.Sprintf(format, args...),
		Response: response,
	}
}

// TimeoutError indicates an operation timed out.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}
