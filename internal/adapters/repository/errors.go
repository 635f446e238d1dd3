package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrCorrupt = errors.New("corrupt cache entry")
	ErrClosed  = errors.New("store closed")
)
