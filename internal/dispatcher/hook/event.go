package hook

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
)

// Event is the record of a single command execution.
// It lives for the duration of one Exec call.
type Event struct {
	// ID correlates the exec and afterExec notifications of one execution.
	ID string

	// Context is the caller context, possibly nil.
	Context execctx.Context

	// Command is the resolved command.
	Command *command.Command

	// Args are the execution arguments.
	Args command.Args

	// Vetoed is set when an exec hook returned false or the handler passed.
	Vetoed bool

	// VetoedBy names the hook that vetoed, or the command name when its
	// handler returned command.ErrPass.
	VetoedBy string

	// Err holds a handler fault.
	Err error

	// Start is when the event was created.
	Start time.Time
}

// NewEvent creates an event for cmd.
func NewEvent(ctx execctx.Context, cmd *command.Command, args command.Args) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Context: ctx,
		Command: cmd,
		Args:    args,
		Start:   time.Now(),
	}
}

// Veto marks the event as vetoed by name.
func (e *Event) Veto(by string) {
	if e.Vetoed {
		return
	}
	e.Vetoed = true
	e.VetoedBy = by
}

// ReturnValue reports whether the execution counts as successful.
func (e *Event) ReturnValue() bool {
	return !e.Vetoed && e.Err == nil
}

// Status returns a short outcome label for logs.
func (e *Event) Status() string {
	switch {
	case e.Err != nil:
		return "error"
	case e.Vetoed:
		return "vetoed"
	default:
		return "ok"
	}
}

// CommandName returns the resolved command name.
func (e *Event) CommandName() string {
	if e.Command == nil {
		return ""
	}
	return e.Command.Name
}
