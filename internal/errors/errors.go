// Package errors provides standardized error types for the converge CLI tool.
//
// The errors package defines domain-specific error types that enable
// structured error handling and consistent error messages throughout
// the application.
//
// # Error Types
//
// ConvergeError is the primary error type, containing:
//   - Code: Categorizes the error (VALIDATION, PROBE, etc.)
//   - Message: Human-readable error description
//   - Resource: The resource name involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// # Error Taxonomy
//
// The four codes that matter during a reconciliation run:
//
//	VALIDATION: malformed or contradictory input; surfaced before any
//	            probing, nothing has touched the host yet.
//	PROBE:      an observed-state query failed. This is fatal for the
//	            invocation and never degrades to "assume absent".
//	EXECUTION:  the external tool exited non-zero; stderr is captured
//	            in the message, no automatic retry.
//	TIMEOUT:    the watchdog around an execution expired, distinct from
//	            EXECUTION so operators can tell a hang from a failure.
//
// # Usage
//
// Creating domain-specific errors:
//
//	return errors.Validation("domains list cannot be empty")
//	return errors.Probe("web", err)
//	return errors.Execution("certbot", stderr)
//
// Use errors.Is for sentinel comparison and errors.As for type assertion:
//
//	var cerr *errors.ConvergeError
//	if errors.As(err, &cerr) && cerr.Code == errors.ErrCodeProbe {
//	    // probe failure, do not treat resource as absent
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeValidation ErrorCode = "VALIDATION" // Input validation failed
	ErrCodeProbe      ErrorCode = "PROBE"      // Observed-state query failed
	ErrCodeExecution  ErrorCode = "EXECUTION"  // External tool returned non-zero
	ErrCodeTimeout    ErrorCode = "TIMEOUT"    // Watchdog timeout expired
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"  // External binary not on PATH
	ErrCodePlan       ErrorCode = "PLAN"       // Plan file could not be loaded
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal/unexpected error
)

// ConvergeError represents a structured error with context about the operation.
type ConvergeError struct {
	Code     ErrorCode // Error category
	Message  string    // Human-readable message
	Resource string    // Resource name (cert name or container name, if applicable)
	Err      error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *ConvergeError) Error() string {
	if e.Resource != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Resource, e.Message, e.Err)
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s", e.Resource, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *ConvergeError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *ConvergeError) Is(target error) bool {
	t, ok := target.(*ConvergeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrValidation indicates the desired state could not be normalized.
	ErrValidation = &ConvergeError{Code: ErrCodeValidation, Message: "validation failed"}

	// ErrProbe indicates the observed-state query failed.
	ErrProbe = &ConvergeError{Code: ErrCodeProbe, Message: "probe failed"}

	// ErrExecution indicates the external tool returned a non-zero exit.
	ErrExecution = &ConvergeError{Code: ErrCodeExecution, Message: "execution failed"}

	// ErrExecutionTimeout indicates the watchdog timeout expired.
	ErrExecutionTimeout = &ConvergeError{Code: ErrCodeTimeout, Message: "execution timed out"}

	// ErrCertbotNotInstalled indicates certbot is not on PATH.
	ErrCertbotNotInstalled = &ConvergeError{Code: ErrCodeNotFound, Message: "certbot not installed"}

	// ErrDockerNotInstalled indicates docker is not on PATH.
	ErrDockerNotInstalled = &ConvergeError{Code: ErrCodeNotFound, Message: "docker not installed"}
)

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &ConvergeError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &ConvergeError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Probe creates a probe error for the named resource.
func Probe(resource string, err error) error {
	return &ConvergeError{
		Code:     ErrCodeProbe,
		Message:  "probe failed",
		Resource: resource,
		Err:      err,
	}
}

// Probef creates a probe error with a formatted message.
func Probef(resource, format string, args ...interface{}) error {
	return &ConvergeError{
		Code:     ErrCodeProbe,
		Message:  fmt.Sprintf(format, args...),
		Resource: resource,
	}
}

// Execution creates an execution error carrying the tool's stderr.
func Execution(tool, stderr string) error {
	return &ConvergeError{
		Code:    ErrCodeExecution,
		Message: fmt.Sprintf("%s failed: %s", tool, stderr),
	}
}

// Timeout creates a timeout error for the named tool.
func Timeout(tool string) error {
	return &ConvergeError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("%s timed out", tool),
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &ConvergeError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
