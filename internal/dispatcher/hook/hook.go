package hook

// Hook is the base interface for all exec hooks.
type Hook interface {
	// Name returns a unique identifier for this hook.
	Name() string

	// Priority returns the hook priority.
	// Higher values run first for exec hooks, last for afterExec hooks.
	Priority() int
}

// ExecHook is notified before a command runs.
type ExecHook interface {
	Hook

	// OnExec returns false to veto the execution.
	OnExec(e *Event) bool
}

// AfterExecHook is notified after the exec phase completes.
type AfterExecHook interface {
	Hook

	AfterExec(e *Event)
}

// ExecFunc wraps a function as an ExecHook.
type ExecFunc struct {
	name     string
	priority int
	fn       func(e *Event) bool
}

// NewExecFunc creates a new ExecFunc hook.
func NewExecFunc(name string, priority int, fn func(e *Event) bool) *ExecFunc {
	return &ExecFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *ExecFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *ExecFunc) Priority() int { return f.priority }

// OnExec implements ExecHook.
func (f *ExecFunc) OnExec(e *Event) bool {
	if f.fn == nil {
		return true
	}
	return f.fn(e)
}

// AfterExecFunc wraps a function as an AfterExecHook.
type AfterExecFunc struct {
	name     string
	priority int
	fn       func(e *Event)
}

// NewAfterExecFunc creates a new AfterExecFunc hook.
func NewAfterExecFunc(name string, priority int, fn func(e *Event)) *AfterExecFunc {
	return &AfterExecFunc{name: name, priority: priority, fn: fn}
}

// Name implements Hook.
func (f *AfterExecFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *AfterExecFunc) Priority() int { return f.priority }

// AfterExec implements AfterExecHook.
func (f *AfterExecFunc) AfterExec(e *Event) {
	if f.fn != nil {
		f.fn(e)
	}
}
