package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidServiceURI signals a malformed search service endpoint.
	ErrInvalidServiceURI = errors.New("invalid search service uri")
	// ErrSearchUnavailable signals a transport or protocol failure talking to the search service.
	ErrSearchUnavailable = errors.New("search service unavailable")
	// ErrInvalidDocument signals an index document that lacks a required field.
	ErrInvalidDocument = errors.New("invalid index document")
)

// StatusError wraps ErrSearchUnavailable with the HTTP status returned by the search service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrSearchUnavailable.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrSearchUnavailable }

// NewStatusError creates a search service status error.
func NewStatusError(statusCode int) error {
	return &StatusError{StatusCode: statusCode}
}
