package vika

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned when the token, the datasheet or the schema is missing.
	ErrNotConfigured = errors.New("vika: not configured")
	// ErrUnauthorized is returned when the remote API rejects the credentials.
	// It is fatal: no further call is attempted.
	ErrUnauthorized = errors.New("vika: unauthorized")
	// ErrMalformedResponse is returned when a response does not have the expected shape.
	ErrMalformedResponse = errors.New("vika: malformed response")
	// ErrInvalidRecord is returned when a desired record cannot be synced.
	ErrInvalidRecord = errors.New("vika: invalid record")
)

// TransportError is a failed call to the remote API that may succeed if retried.
type TransportError struct {
	Op  string // "list", "create", "update" or "delete"
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("vika %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// retryable reports whether a call failing with err is worth another attempt.
func retryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && !errors.Is(err, ErrUnauthorized)
}

// BatchError records a batch that still failed after all its attempts.
type BatchError struct {
	Op       Op
	IDs      []string // record ids for update and delete, fund codes for create
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch [%s] failed after %d attempt(s): %v", e.Op, strings.Join(e.IDs, ","), e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
