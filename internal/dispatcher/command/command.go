// Package command defines invocable commands and the references used to
// select them for execution.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/keycmd/internal/dispatcher/execctx"
)

// Command errors.
var (
	// ErrPass is returned by a handler that declines to handle the command.
	// The dispatcher reports the execution as unsuccessful, which lets a
	// command list fall through to the next candidate.
	ErrPass = errors.New("command: not handled")

	// ErrEmptyName indicates a command without a name.
	ErrEmptyName = errors.New("command: name is required")

	// ErrNilHandler indicates a command without a handler.
	ErrNilHandler = errors.New("command: handler is required")

	// ErrInvalidName indicates a name containing whitespace or a list separator.
	ErrInvalidName = errors.New("command: invalid name")
)

// Args carries named arguments to a handler.
type Args map[string]any

// String returns the string argument for key, or "".
func (a Args) String(key string) string {
	if a == nil {
		return ""
	}
	s, _ := a[key].(string)
	return s
}

// Bool returns the boolean argument for key, or false.
func (a Args) Bool(key string) bool {
	if a == nil {
		return false
	}
	b, _ := a[key].(bool)
	return b
}

// Clone returns a shallow copy of the arguments.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Handler performs a command against a caller context.
// Return ErrPass to decline; any other error is a fault.
type Handler func(ctx execctx.Context, args Args) error

// Predicate decides whether a command is available for a caller context.
type Predicate func(ctx execctx.Context) bool

// Command is a named, invocable action.
type Command struct {
	// Name is the unique registry key.
	Name string

	// Description is a short human-readable summary.
	Description string

	// Handler performs the action.
	Handler Handler

	// IsAvailable, if set, gates execution when state checking is enabled.
	IsAvailable Predicate

	// ReadOnly allows the command to run against a read-only context.
	ReadOnly bool

	// BindKey holds shortcut specs separated by "|", e.g. "Ctrl-S|Cmd-S".
	BindKey string

	// Source identifies where the command was defined ("builtin", "lua:init.lua").
	Source string
}

// Validate checks that the command can be registered.
func (c *Command) Validate() error {
	if c == nil {
		return ErrNilHandler
	}
	if c.Name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(c.Name, " \t\n|") {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if c.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, c.Name)
	}
	return nil
}

// Available reports whether the predicate (if any) allows ctx.
func (c *Command) Available(ctx execctx.Context) bool {
	return c.IsAvailable == nil || c.IsAvailable(ctx)
}

// Keys returns the individual shortcut specs from BindKey.
func (c *Command) Keys() []string {
	if c.BindKey == "" {
		return nil
	}
	parts := strings.Split(c.BindKey, "|")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// String returns the command name.
func (c *Command) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}
