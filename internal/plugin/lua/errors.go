package lua

import "errors"

// Errors for Lua script operations.
var (
	// ErrStateClosed is returned when operating on a closed loader.
	ErrStateClosed = errors.New("lua: state is closed")

	// ErrScript wraps errors raised while running Lua code.
	ErrScript = errors.New("lua: script error")
)
