package tracker

import "errors"

// Sentinel errors for user-correctable conditions. Callers wrap these with
// path and operation context via fmt.Errorf("...: %w", ...).
var (
	ErrPathNotFound   = errors.New("path not found")
	ErrNotAFile       = errors.New("not a regular file")
	ErrAlreadyTracked = errors.New("already tracked")
	ErrNotTracked     = errors.New("not tracked")
	ErrContention     = errors.New("store is busy")
	ErrConflict       = errors.New("local changes conflict with remote")
	ErrTransport      = errors.New("remote transport failed")
)
