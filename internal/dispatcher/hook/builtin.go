package hook

import (
	"sync"
	"time"

	"github.com/dshills/keycmd/internal/dispatcher/command"
)

// Standard hook priorities.
const (
	PriorityAudit   = 1000  // Runs first (exec) / last (afterExec)
	PriorityGuard   = 800   // Policy hooks that may veto
	PriorityRepeat  = 500   // Capture for repeat command
	PriorityDefault = 0     // User hooks
	PriorityCommand = -1000 // Invokes the command handler
)

// Logger is the interface for logging hooks. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// AuditHook logs every execution that reaches the notification phase.
type AuditHook struct {
	logger Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// OnExec logs the command being executed.
func (h *AuditHook) OnExec(e *Event) bool {
	if h.logger != nil {
		h.logger.Debug("exec start",
			"id", e.ID,
			"command", e.CommandName(),
			"args", len(e.Args),
		)
	}
	return true
}

// AfterExec logs the outcome.
func (h *AuditHook) AfterExec(e *Event) {
	if h.logger == nil {
		return
	}

	elapsed := time.Since(e.Start)
	if e.Err != nil {
		h.logger.Error("exec failed",
			"id", e.ID,
			"command", e.CommandName(),
			"error", e.Err,
			"elapsed", elapsed,
		)
		return
	}
	h.logger.Debug("exec complete",
		"id", e.ID,
		"command", e.CommandName(),
		"status", e.Status(),
		"vetoed_by", e.VetoedBy,
		"elapsed", elapsed,
	)
}

// RepeatHook captures the last successful repeatable command so it can be
// run again.
type RepeatHook struct {
	mu       sync.RWMutex
	last     *command.Command
	lastArgs command.Args

	// Repeatable decides which commands are captured.
	// Defaults to commands that are not marked read-only.
	Repeatable func(cmd *command.Command) bool
}

// NewRepeatHook creates a new repeat hook.
func NewRepeatHook() *RepeatHook {
	return &RepeatHook{}
}

// Name implements Hook.
func (h *RepeatHook) Name() string { return "repeat" }

// Priority implements Hook.
func (h *RepeatHook) Priority() int { return PriorityRepeat }

// AfterExec captures successful repeatable commands.
func (h *RepeatHook) AfterExec(e *Event) {
	if !e.ReturnValue() || e.Command == nil {
		return
	}
	if !h.repeatable(e.Command) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = e.Command
	h.lastArgs = e.Args.Clone()
}

// Last returns the last captured command and a copy of its args.
// Returns nil if nothing has been captured.
func (h *RepeatHook) Last() (*command.Command, command.Args) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.last == nil {
		return nil, nil
	}
	return h.last, h.lastArgs.Clone()
}

// Clear forgets the captured command.
func (h *RepeatHook) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = nil
	h.lastArgs = nil
}

func (h *RepeatHook) repeatable(cmd *command.Command) bool {
	if h.Repeatable != nil {
		return h.Repeatable(cmd)
	}
	return !cmd.ReadOnly
}
