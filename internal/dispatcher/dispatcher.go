package dispatcher

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
	"github.com/dshills/keycmd/internal/dispatcher/hook"
)

// Dispatcher resolves commands, checks them against the caller context and
// runs them through the exec and afterExec notifications.
type Dispatcher struct {
	registry *Registry
	hooks    *hook.Manager
	config   Config
	metrics  *Metrics
	logger   *slog.Logger

	checkState atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for rejections, panics and auditing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHookManager injects the hook manager instead of creating one.
func WithHookManager(m *hook.Manager) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.hooks = m
		}
	}
}

// New creates a new dispatcher with the given configuration.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		hooks:    hook.NewManager(),
		config:   config,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.checkState.Store(config.CheckCommandState)
	d.registry.setLogger(d.logger)

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	if config.Audit {
		d.hooks.Register(hook.NewAuditHook(d.logger))
	}
	d.hooks.Pin(invoker{})

	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// Exec runs the command selected by ref against ctx.
//
// It returns false without notifying hooks when the command does not
// resolve, when ctx is read-only and the command is not, or when state
// checking is on and the command's availability predicate rejects ctx.
// Otherwise exec hooks run (one of them invokes the handler) followed by
// afterExec hooks, and the result is false only if the execution was vetoed
// or the handler passed. A handler fault is returned as the error.
//
// A command.List is tried from its last element to its first; the first
// successful execution ends the run.
func (d *Dispatcher) Exec(ref command.Ref, ctx execctx.Context, args command.Args) (bool, error) {
	if list, ok := ref.(command.List); ok {
		for i := len(list) - 1; i >= 0; i-- {
			ok, err := d.Exec(list[i], ctx, args)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	cmd, err := d.check(ref, ctx)
	if err != nil {
		d.logger.Debug("exec rejected",
			"command", command.RefString(ref),
			"reason", err,
		)
		if d.metrics != nil {
			d.metrics.RecordRejection(command.RefString(ref), err)
		}
		return false, nil
	}

	return d.run(cmd, ctx, args)
}

// ExecName is shorthand for Exec(command.Name(name), ctx, args).
func (d *Dispatcher) ExecName(name string, ctx execctx.Context, args command.Args) (bool, error) {
	return d.Exec(command.Name(name), ctx, args)
}

// Check resolves ref and applies the eligibility checks without executing.
// For a command.List it returns the candidate Exec would try first that
// passes, or the error of the first element in the list when none does.
func (d *Dispatcher) Check(ref command.Ref, ctx execctx.Context) (*command.Command, error) {
	if list, ok := ref.(command.List); ok {
		var firstErr error = ErrNotFound
		for i := len(list) - 1; i >= 0; i-- {
			cmd, err := d.Check(list[i], ctx)
			if err == nil {
				return cmd, nil
			}
			firstErr = err
		}
		return nil, firstErr
	}
	return d.check(ref, ctx)
}

func (d *Dispatcher) check(ref command.Ref, ctx execctx.Context) (*command.Command, error) {
	cmd := d.resolve(ref)
	if cmd == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, command.RefString(ref))
	}
	if execctx.IsReadOnly(ctx) && !cmd.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, cmd.Name)
	}
	if d.checkState.Load() && !cmd.Available(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, cmd.Name)
	}
	return cmd, nil
}

func (d *Dispatcher) resolve(ref command.Ref) *command.Command {
	switch r := ref.(type) {
	case command.Name:
		return d.registry.Get(string(r))
	case *command.Command:
		return r
	default:
		return nil
	}
}

// run performs the notification cycle for a resolved command.
func (d *Dispatcher) run(cmd *command.Command, ctx execctx.Context, args command.Args) (bool, error) {
	e := hook.NewEvent(ctx, cmd, args)

	if d.config.RecoverFromPanic {
		d.guard(e, func() { d.hooks.RunExec(e) })
		d.guard(e, func() { d.hooks.RunAfterExec(e) })
	} else {
		d.hooks.RunExec(e)
		d.hooks.RunAfterExec(e)
	}

	if d.metrics != nil {
		d.metrics.RecordExec(e, time.Since(e.Start))
	}

	if e.Err != nil {
		return false, e.Err
	}
	return e.ReturnValue(), nil
}

// guard runs fn and turns a panic into the event's error.
func (d *Dispatcher) guard(e *hook.Event, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			if e.Err == nil {
				e.Err = fmt.Errorf("%w: %s: %v", ErrPanic, e.CommandName(), r)
			}
			d.logger.Error("exec panic",
				"id", e.ID,
				"command", e.CommandName(),
				"panic", r,
				"stack", string(stack[:n]),
			)
			if d.metrics != nil {
				d.metrics.RecordPanic(e.CommandName())
			}
		}
	}()
	fn()
}

// invoker is the exec hook that calls the command handler. It is pinned in
// the hook manager so no user hook can take its place.
type invoker struct{}

func (invoker) Name() string  { return "command" }
func (invoker) Priority() int { return hook.PriorityCommand }

func (invoker) OnExec(e *hook.Event) bool {
	if e.Command.Handler == nil {
		e.Err = fmt.Errorf("%w: %s", command.ErrNilHandler, e.Command.Name)
		return true
	}

	err := e.Command.Handler(e.Context, e.Args)
	switch {
	case err == nil:
		return true
	case errors.Is(err, command.ErrPass):
		e.Veto(e.Command.Name)
		return false
	default:
		e.Err = err
		return true
	}
}

// AddCommand registers a command.
func (d *Dispatcher) AddCommand(cmd *command.Command) error {
	return d.registry.Register(cmd)
}

// AddCommands registers several commands, stopping at the first invalid one.
func (d *Dispatcher) AddCommands(cmds ...*command.Command) error {
	for _, cmd := range cmds {
		if err := d.registry.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// RemoveCommand unregisters a command by name.
func (d *Dispatcher) RemoveCommand(name string) bool {
	return d.registry.Unregister(name)
}

// Command returns the registered command with the given name, or nil.
func (d *Dispatcher) Command(name string) *command.Command {
	return d.registry.Get(name)
}

// Commands returns all registered commands sorted by name.
func (d *Dispatcher) Commands() []*command.Command {
	return d.registry.Commands()
}

// SetCheckCommandState enables or disables availability predicates.
func (d *Dispatcher) SetCheckCommandState(check bool) {
	d.checkState.Store(check)
}

// CheckCommandState reports whether availability predicates are consulted.
func (d *Dispatcher) CheckCommandState() bool {
	return d.checkState.Load()
}

// OnExec registers a function exec hook. Returning false vetoes.
// The name "command" belongs to the handler invoker and is refused; see
// Subscription.Err.
func (d *Dispatcher) OnExec(name string, priority int, fn func(e *hook.Event) bool) hook.Subscription {
	return d.hooks.RegisterExec(hook.NewExecFunc(name, priority, fn))
}

// OnAfterExec registers a function afterExec hook.
func (d *Dispatcher) OnAfterExec(name string, priority int, fn func(e *hook.Event)) hook.Subscription {
	return d.hooks.RegisterAfterExec(hook.NewAfterExecFunc(name, priority, fn))
}

// Hooks returns the hook manager.
func (d *Dispatcher) Hooks() *hook.Manager {
	return d.hooks
}

// Registry returns the command registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
