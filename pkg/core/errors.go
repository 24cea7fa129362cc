package core

import "errors"

// Common errors.
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNotInitialized   = errors.New("connector is not initialized")
	ErrReadOnly         = errors.New("connector is in read-only mode")
	ErrInvalidLabel     = errors.New("invalid node label")
	ErrWatchUnsupported = errors.New("connector does not support watching")
)
