// Package serviceerr defines the sentinel errors shared by the ceremony
// core and the error model exposed by the public HTTP API.
package serviceerr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned by repositories when no record exists.
	ErrNotFound = errors.New("not found")

	// ErrEntropyUnavailable indicates the secure random source failed.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")
	// ErrEmptyUserName indicates a registration was started without a user name.
	ErrEmptyUserName = errors.New("user name required")
	// ErrMalformedTemplate indicates a server template still contained
	// placeholder tokens after substitution.
	ErrMalformedTemplate = errors.New("malformed ceremony template")
	// ErrInvalidCeremonyState indicates Start was called on a ceremony
	// instance that already ran.
	ErrInvalidCeremonyState = errors.New("invalid ceremony state")
	// ErrCeremonyAlreadyInProgress indicates another ceremony is awaiting
	// the broker for the same session.
	ErrCeremonyAlreadyInProgress = errors.New("ceremony already in progress")
	// ErrInvalidCSRFToken indicates a logout request carried a token that
	// does not match the signed-in session.
	ErrInvalidCSRFToken = errors.New("invalid csrf token")
)

// Code identifies an error class on the wire.
type Code string

const (
	CodeInvalidRequest   Code = "invalid_request"
	CodeCeremonyInFlight Code = "ceremony_in_progress"
	CodeUpstreamTemplate Code = "upstream_template"
	CodeInvalidCSRFToken Code = "invalid_csrf_token"
	CodeUnknown          Code = "unknown"
)

// Error is the transport-facing error model. The ceremony core itself
// only deals in sentinel errors; handlers convert them with FromError.
type Error struct {
	Err         Code
	Description string
	status      int
}

func (e *Error) Error() string { return string(e.Err) + ": " + e.Description }

// HTTPStatus returns the HTTP status code for the error.
func (e *Error) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

// ErrUnknown is the fallback error model for unclassified failures.
var ErrUnknown = &Error{
	Err:         CodeUnknown,
	Description: "an unexpected error occurred",
	status:      http.StatusInternalServerError,
}

// New builds an Error with an explicit HTTP status.
func New(code Code, description string, status int) *Error {
	return &Error{Err: code, Description: description, status: status}
}

// FromError maps core sentinel errors onto the transport error model.
func FromError(err error) *Error {
	switch {
	case errors.Is(err, ErrEmptyUserName):
		return New(CodeInvalidRequest, ErrEmptyUserName.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrCeremonyAlreadyInProgress):
		return New(CodeCeremonyInFlight, ErrCeremonyAlreadyInProgress.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidCeremonyState):
		return New(CodeCeremonyInFlight, ErrInvalidCeremonyState.Error(), http.StatusConflict)
	case errors.Is(err, ErrMalformedTemplate):
		return New(CodeUpstreamTemplate, ErrMalformedTemplate.Error(), http.StatusBadGateway)
	case errors.Is(err, ErrInvalidCSRFToken):
		return New(CodeInvalidCSRFToken, ErrInvalidCSRFToken.Error(), http.StatusForbidden)
	case errors.Is(err, ErrEntropyUnavailable):
		return New(CodeUnknown, ErrEntropyUnavailable.Error(), http.StatusInternalServerError)
	default:
		return ErrUnknown
	}
}
