// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageCorrupt     = errors.New("storage corrupt")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
