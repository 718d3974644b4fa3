package propix

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be generic and map well to errors a caller can act on:
// ECONFIG aborts the process before any work begins, EUNAVAILABLE is retried
// with backoff, ECHALLENGE is escalated to the circuit breaker without a
// retry storm, ECORRUPT triggers backup recovery.
const (
	ECHALLENGE   = "challenge"   // anti-automation challenge detected
	ECONFIG      = "config"      // invalid configuration; fatal
	ECONFLICT    = "conflict"    // action conflicts with current state
	ECORRUPT     = "corrupt"     // persisted data failed integrity checks
	EINTERNAL    = "internal"    // internal error
	EINVALID     = "invalid"     // validation failed
	ENOTFOUND    = "not_found"   // entity does not exist
	EUNAVAILABLE = "unavailable" // transient network or dependency failure
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract the code and message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("propix error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
