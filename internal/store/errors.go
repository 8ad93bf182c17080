package store

import "errors"

// Sentinel errors.
var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("store: key not found")
	// ErrClosed is returned by operations on a closed storage.
	ErrClosed = errors.New("store: closed")
)
