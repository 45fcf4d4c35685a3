package dispatcher

import "errors"

// Dispatcher errors.
//
// Exec never returns ErrNotFound, ErrReadOnly or ErrUnavailable; those
// outcomes are reported as a false result. Check returns them for callers
// that need to tell the cases apart.
var (
	// ErrNotFound indicates the command reference did not resolve.
	ErrNotFound = errors.New("dispatcher: command not found")

	// ErrReadOnly indicates a read-only context and a command not marked read-only.
	ErrReadOnly = errors.New("dispatcher: command not allowed in read-only context")

	// ErrUnavailable indicates the command's availability predicate rejected the context.
	ErrUnavailable = errors.New("dispatcher: command not available")

	// ErrPanic indicates a hook or handler panicked while panic recovery was enabled.
	ErrPanic = errors.New("dispatcher: handler panic")
)
