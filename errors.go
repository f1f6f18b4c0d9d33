package storyhost

import "errors"

var (
	// ErrNotFound is returned when an archive or an entry inside it is absent
	ErrNotFound = errors.New("not found")
	// ErrInvalidIdentifier is returned when a request path fails the identifier grammar
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrUnsupported is returned for operations a storage backend cannot perform
	ErrUnsupported = errors.New("unsupported operation")
)
