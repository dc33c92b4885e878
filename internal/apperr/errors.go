// Package apperr holds the sentinel errors shared across service layers.
package apperr

import "errors"

var (
	// ErrNotFound: the note or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a stale ETag, or a limit that is already reached.
	ErrConflict = errors.New("conflict")
	// ErrInvalid: input failed validation.
	ErrInvalid = errors.New("invalid")
)
