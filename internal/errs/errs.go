// Package errs defines sentinel errors shared across packages.
package errs

import "errors"

var (
	// ErrNotFound is returned by the record store when a collection holds no matching document.
	ErrNotFound = errors.New("document not found")
	// ErrStoreUnavailable wraps any failure to reach or query the record store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidation marks a request body that does not have the expected shape.
	ErrValidation = errors.New("validation error")
)
