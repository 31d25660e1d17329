// Package domainerrors defines the service-wide error taxonomy. Services and
// stores return these instead of raw infrastructure errors so transport code
// can map outcomes to HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error outcome.
type Code string

const (
	// CodeBadRequest covers validation failures on incoming payloads.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound means the target record does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means an atomic store operation lost a race and may be retried.
	CodeConflict Code = "conflict"
	// CodeUnavailable means the backing store could not be reached.
	CodeUnavailable Code = "unavailable"
	// CodeInternal is the catch-all for unexpected failures.
	CodeInternal Code = "internal_error"
)

// DomainError carries a code plus a human-readable message safe for operators.
// The message is only exposed to clients for non-internal codes.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &DomainError{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err. Internal and
// unclassified errors yield a generic message so infrastructure detail never
// leaks to clients.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return "internal server error"
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
