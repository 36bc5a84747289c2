// Package errors implements the stable error taxonomy from spec §7:
// typed values carrying an HTTP status and a stable code, propagated
// as normal Go errors and converted to the response envelope only at
// the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the stable taxonomy codes from spec §7.
type Code string

const (
	AuthRequired        Code = "AUTH_REQUIRED"
	AuthInvalid         Code = "AUTH_INVALID"
	Forbidden           Code = "FORBIDDEN"
	RateLimited         Code = "RATE_LIMITED"
	BadRequest          Code = "BAD_REQUEST"
	NotFound            Code = "NOT_FOUND"
	Conflict            Code = "CONFLICT"
	UpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	Timeout             Code = "TIMEOUT"
	Internal            Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	AuthRequired:        http.StatusUnauthorized,
	AuthInvalid:         http.StatusUnauthorized,
	Forbidden:           http.StatusForbidden,
	RateLimited:         http.StatusTooManyRequests,
	BadRequest:          http.StatusBadRequest,
	NotFound:            http.StatusNotFound,
	Conflict:            http.StatusConflict,
	UpstreamUnavailable: http.StatusBadGateway,
	Timeout:             http.StatusGatewayTimeout,
	Internal:            http.StatusInternalServerError,
}

// APIError is a typed error value carrying a taxonomy Code, its HTTP
// status, and a caller-safe message (never a secret, never a stack
// trace — spec §7 "never leak stack traces").
type APIError struct {
	Code              Code
	StatusCode        int
	Message           string
	RetryAfterSeconds int
	cause             error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// New builds an APIError for the given taxonomy code.
func New(code Code, message string) *APIError {
	return &APIError{Code: code, StatusCode: statusByCode[code], Message: message}
}

// Wrap builds an APIError that also carries an underlying cause, kept
// for logging but never exposed in the response message.
func Wrap(code Code, message string, cause error) *APIError {
	return &APIError{Code: code, StatusCode: statusByCode[code], Message: message, cause: cause}
}

// As reports whether err is (or wraps) an *APIError and returns it.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Convenience constructors matching spec §7 one-to-one.

func NewAuthRequired() *APIError { return New(AuthRequired, "authentication required") }
func NewAuthInvalid() *APIError  { return New(AuthInvalid, "invalid credentials") }
func NewForbidden(msg string) *APIError {
	if msg == "" {
		msg = "forbidden"
	}
	return New(Forbidden, msg)
}
func NewRateLimited(retryAfterSeconds int) *APIError {
	e := New(RateLimited, "rate limit exceeded")
	e.RetryAfterSeconds = retryAfterSeconds
	return e
}
func NewBadRequest(msg string) *APIError    { return New(BadRequest, msg) }
func NewNotFound(msg string) *APIError      { return New(NotFound, msg) }
func NewConflict(msg string) *APIError      { return New(Conflict, msg) }
func NewUpstreamUnavailable(msg string) *APIError {
	return New(UpstreamUnavailable, msg)
}
func NewTimeout(msg string) *APIError  { return New(Timeout, msg) }
func NewInternal(msg string) *APIError { return New(Internal, msg) }
