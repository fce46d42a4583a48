// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP handlers.
//
// Every error that leaves a service is an *Error carrying a machine-readable
// code, a client-safe message and the HTTP status it maps to. The underlying
// cause is kept for server-side logging only and never reaches a client.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	// Code is a machine-readable identifier, e.g. "CONFLICT".
	Code string `json:"code"`
	// Message is safe to return to the client verbatim.
	Message string `json:"message"`
	// HTTPStatus is the response status this error maps to.
	HTTPStatus int `json:"-"`
	// Details optionally carries an operator-facing hint that is still safe
	// to serialize (never the raw cause).
	Details string `json:"details,omitempty"`
	// Cause is the wrapped error, for logs only.
	Cause error `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Validation reports missing or malformed input fields. 400-class, never a
// server fault.
func Validation(msg string) *Error {
	return &Error{Code: "VALIDATION", Message: msg, HTTPStatus: http.StatusBadRequest}
}

// Conflict reports a duplicate-resource condition, e.g. an email that is
// already registered.
func Conflict(msg string) *Error {
	return &Error{Code: "CONFLICT", Message: msg, HTTPStatus: http.StatusBadRequest}
}

// InvalidCredentials is the uniform login failure. The message never
// distinguishes an unknown email from a wrong password.
func InvalidCredentials() *Error {
	return &Error{Code: "AUTH", Message: "Invalid credentials.", HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports a missing, malformed or expired bearer token.
func Unauthorized(msg string) *Error {
	return &Error{Code: "AUTH", Message: msg, HTTPStatus: http.StatusUnauthorized}
}

// Upstream reports a failed call to the generative model. The client sees a
// generic message; cause stays server-side.
func Upstream(cause error) *Error {
	return &Error{
		Code:       "UPSTREAM",
		Message:    "AI Service Unavailable",
		HTTPStatus: http.StatusInternalServerError,
		Details:    "the generative model could not be reached or returned an error",
		Cause:      cause,
	}
}

// UnsupportedMedia reports a degenerate image payload. Callers treat it as a
// soft failure and fall back to a text-only prompt.
func UnsupportedMedia(msg string) *Error {
	return &Error{Code: "UNSUPPORTED_MEDIA", Message: msg, HTTPStatus: http.StatusBadRequest}
}

// Internal wraps an unexpected server fault.
func Internal(cause error) *Error {
	return &Error{Code: "INTERNAL", Message: "Server error", HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// From extracts an *Error from err, wrapping unknown errors as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
