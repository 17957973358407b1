// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

package transport

import (
	"errors"
	"fmt"
)

// The error taxonomy for outbound API calls. Every failed Send resolves
// to exactly one of these types so callers can branch with errors.As
// instead of inspecting status codes.

// NetworkError means the request never produced a response: DNS failure,
// connection refused, connection reset mid-body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError means the request exceeded the transport's fixed deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out during %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// AuthError means the server rejected the credential (401 on a protected
// resource) or, at the session layer, that a login response carried no
// usable credential.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// ValidationError is a 4xx rejection, optionally carrying the structured
// per-field detail the server attached. A 422 on clock-in lands here.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %d", e.Status)
	}
	return fmt.Sprintf("request rejected with status %d: %s", e.Status, e.Message)
}

// ServerError is a 5xx response or a malformed success response.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error with status %d", e.Status)
	}
	return fmt.Sprintf("server error with status %d: %s", e.Status, e.Message)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// AsValidation extracts a ValidationError, if err is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Retriable reports whether the error indicates a transient condition
// worth retrying or counting against the upstream. Client-side
// rejections (4xx) are the caller's fault and must not trip a breaker.
func Retriable(err error) bool {
	var ne *NetworkError
	var te *TimeoutError
	var se *ServerError
	return errors.As(err, &ne) || errors.As(err, &te) || errors.As(err, &se)
}
