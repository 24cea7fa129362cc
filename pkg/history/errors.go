package history

import "errors"

// Common errors.
var (
	ErrUnknownLevel = errors.New("unknown history level")
	ErrStoreClosed  = errors.New("history store is closed")
)
