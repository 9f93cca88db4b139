// Package errors defines the stable error code system for expbox.
package errors

import (
	"errors"
	"fmt"
	"io"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract: scripts match on these strings.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Box and index lookup
	ENotFound      Code = "E_NOT_FOUND"      // box, meta.json, or index record absent
	EAlreadyExists Code = "E_ALREADY_EXISTS" // exp_id collision or file already written
	ECorrupt       Code = "E_CORRUPT"        // meta.json / index record unparsable or schema-invalid
	ENoActiveBox   Code = "E_NO_ACTIVE_BOX"  // load without id and .expbox/active is empty
	EIDAmbiguous   Code = "E_ID_AMBIGUOUS"   // id prefix matches >1 box
	EInvalidID     Code = "E_INVALID_ID"     // id is not a safe single path segment
	EInvalidStatus Code = "E_INVALID_STATUS" // status outside the taxonomy (or not an archive reason)
	EConfigInvalid Code = "E_CONFIG_INVALID" // config source missing, malformed, or not a mapping

	// Collaborators
	EGitUnavailable Code = "E_GIT_UNAVAILABLE" // git missing, not a repo, or timed out; degraded, never fatal

	// Persistence
	EMetaWriteFailed  Code = "E_META_WRITE_FAILED"
	EIndexWriteFailed Code = "E_INDEX_WRITE_FAILED" // meta.json is valid; index is stale until the next save
	EPersistFailed    Code = "E_PERSIST_FAILED"
	ELogWriteFailed   Code = "E_LOG_WRITE_FAILED"
)

// BoxError is the standard error type for expbox errors.
type BoxError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *BoxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BoxError) Unwrap() error {
	return e.Cause
}

// ExitCodeError wraps an error with an explicit process exit code.
type ExitCodeError struct {
	Err  error
	Code int
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

func (e *ExitCodeError) ExitCode() int {
	return e.Code
}

// WithExitCode wraps err with a specific process exit code.
func WithExitCode(err error, code int) error {
	return &ExitCodeError{Err: err, Code: code}
}

// New creates a new BoxError with the given code and message.
func New(code Code, msg string) error {
	return &BoxError{Code: code, Msg: msg}
}

// NewWithDetails creates a new BoxError with code, message, and details.
// Details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &BoxError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new BoxError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &BoxError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new BoxError wrapping an underlying error with details.
// Details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &BoxError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a BoxError.
func GetCode(err error) Code {
	var be *BoxError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// AsBoxError returns (*BoxError, true) if err is or wraps a BoxError.
func AsBoxError(err error) (*BoxError, bool) {
	var be *BoxError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// Exit codes by error class.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitCorrupt  = 4
)

// ExitCode returns the process exit code for an error.
//
//	0 nil
//	2 usage and validation errors
//	3 not found (including no active box)
//	4 corrupt metadata or index
//	1 everything else
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if ec, ok := err.(interface{ ExitCode() int }); ok {
		return ec.ExitCode()
	}
	switch GetCode(err) {
	case EUsage, EInvalidStatus, EConfigInvalid, EInvalidID, EIDAmbiguous:
		return ExitUsage
	case ENotFound, ENoActiveBox:
		return ExitNotFound
	case ECorrupt:
		return ExitCorrupt
	}
	return ExitFailure
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var be *BoxError
	if errors.As(err, &be) {
		_, _ = fmt.Fprintf(w, "error_code: %s\n", be.Code)
		_, _ = fmt.Fprintln(w, be.Msg)
	} else {
		_, _ = fmt.Fprintln(w, err.Error())
	}
}
