// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota

	// ErrTypeTransport: the request failed or the connection could not be
	// established. Never retried automatically.
	ErrTypeTransport

	// ErrTypeStream: an error event arrived mid-stream, or the connection
	// closed before a terminal event.
	ErrTypeStream

	// ErrTypeTimeout: the initial response did not arrive in time.
	ErrTypeTimeout

	// ErrTypeNotFound: the backend reported a missing entity.
	ErrTypeNotFound

	// ErrTypeInvalidResponse: the backend answered with something the
	// client could not use.
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrBackendDown  = &ClientError{Type: ErrTypeTransport, Message: "workspace backend is not reachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
	ErrStreamClosed = &ClientError{Type: ErrTypeStream, Message: "stream closed before completion"}
)

// errType extracts the ErrorType from an error chain.
func errType(err error) ErrorType {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrTypeUnknown
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool { return errType(err) == ErrTypeTransport }

// IsStream reports whether err is a mid-stream failure.
func IsStream(err error) bool { return errType(err) == ErrTypeStream }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return errType(err) == ErrTypeTimeout }

// IsNotFound reports whether err indicates a missing entity.
func IsNotFound(err error) bool { return errType(err) == ErrTypeNotFound }
