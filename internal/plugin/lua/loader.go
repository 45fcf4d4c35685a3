package lua

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
)

// Dispatcher is the part of the command dispatcher scripts talk to.
// *dispatcher.Dispatcher satisfies it.
type Dispatcher interface {
	AddCommand(cmd *command.Command) error
	RemoveCommand(name string) bool
	Exec(ref command.Ref, ctx execctx.Context, args command.Args) (bool, error)
	Command(name string) *command.Command
	Commands() []*command.Command
}

// Loader runs command scripts and registers the commands they define.
//
// gopher-lua states are not goroutine-safe, so every entry into the state
// is serialised by mu. A script calling keycmd.exec re-enters the dispatcher
// on the same goroutine; the nested handler recognises the scriptContext it
// is handed and runs without taking the lock again.
type Loader struct {
	mu      sync.Mutex
	L       *lua.LState
	closed  bool
	timeout time.Duration

	dispatcher Dispatcher
	logger     *slog.Logger

	// current is the caller context of the innermost running handler.
	current execctx.Context
	// source is the script being loaded, "" outside of Load calls.
	source string

	handlers *lua.LTable
	defined  map[string]*command.Command
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for keycmd.log and print output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithExecutionTimeout bounds each script load and handler call.
// Zero disables the limit.
func WithExecutionTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// NewLoader creates a loader registering commands with d.
func NewLoader(d Dispatcher, opts ...Option) *Loader {
	l := &Loader{
		L:          newState(),
		timeout:    DefaultExecutionTimeout,
		dispatcher: d,
		logger:     slog.New(slog.DiscardHandler),
		defined:    make(map[string]*command.Command),
	}
	for _, opt := range opts {
		opt(l)
	}

	// Handler functions live in a table reachable from the registry of
	// globals so they are not collected.
	l.handlers = l.L.NewTable()
	l.L.SetGlobal("_keycmd_handlers", l.handlers)

	mod := l.L.NewTable()
	l.L.SetField(mod, "add", l.L.NewFunction(l.luaAdd))
	l.L.SetField(mod, "exec", l.L.NewFunction(l.luaExec))
	l.L.SetField(mod, "commands", l.L.NewFunction(l.luaCommands))
	l.L.SetField(mod, "log", l.L.NewFunction(l.luaLog))
	l.L.SetGlobal("keycmd", mod)
	l.L.SetGlobal("print", l.L.NewFunction(l.luaLog))

	return l
}

// LoadFile runs the script at path. Commands it defines get the source
// "lua:<base name>".
func (l *Loader) LoadFile(path string) error {
	return l.load("lua:"+filepath.Base(path), func() error {
		return l.L.DoFile(path)
	})
}

// LoadString runs code as a script named name.
func (l *Loader) LoadString(name, code string) error {
	return l.load("lua:"+name, func() error {
		return l.L.DoString(code)
	})
}

func (l *Loader) load(source string, run func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrStateClosed
	}

	l.source = source
	defer func() { l.source = "" }()

	if err := withTimeout(l.L, l.timeout, run); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScript, source, err)
	}
	return nil
}

// Commands returns the commands defined by scripts, sorted by name.
func (l *Loader) Commands() []*command.Command {
	l.mu.Lock()
	defer l.mu.Unlock()

	cmds := make([]*command.Command, 0, len(l.defined))
	for _, cmd := range l.defined {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Close unregisters every script command and releases the Lua state.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	for name, cmd := range l.defined {
		// Only remove the command if a script command still owns the name.
		if l.dispatcher.Command(name) == cmd {
			l.dispatcher.RemoveCommand(name)
		}
	}
	l.defined = make(map[string]*command.Command)
	l.L.Close()
	l.closed = true
	return nil
}

// scriptContext wraps the caller context while Lua code runs.
type scriptContext struct {
	execctx.Context
	loader *Loader
}

// ReadOnly implements execctx.Context.
func (c scriptContext) ReadOnly() bool {
	return execctx.IsReadOnly(c.Context)
}

// Unwrap returns the caller context.
func (c scriptContext) Unwrap() execctx.Context {
	return c.Context
}

// owns reports whether ctx came from a keycmd.exec call of this loader,
// in which case the lock is already held further up the stack.
func (l *Loader) owns(ctx execctx.Context) bool {
	sc, ok := ctx.(scriptContext)
	return ok && sc.loader == l
}

// call invokes the stored handler function key with args and returns its
// first result.
func (l *Loader) call(ctx execctx.Context, key string, args ...func(*lua.LState) lua.LValue) (lua.LValue, error) {
	nested := l.owns(ctx)
	if !nested {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	if l.closed {
		return lua.LNil, ErrStateClosed
	}

	fn, ok := l.handlers.RawGetString(key).(*lua.LFunction)
	if !ok {
		return lua.LNil, fmt.Errorf("no function for %s", key)
	}

	prev := l.current
	l.current = ctx
	defer func() { l.current = prev }()

	var ret lua.LValue = lua.LNil
	invoke := func() error {
		l.L.Push(fn)
		for _, arg := range args {
			l.L.Push(arg(l.L))
		}
		if err := l.L.PCall(len(args), 1, nil); err != nil {
			return err
		}
		ret = l.L.Get(-1)
		l.L.Pop(1)
		return nil
	}

	var err error
	if nested {
		err = recoverCall(invoke)
	} else {
		err = withTimeout(l.L, l.timeout, invoke)
	}
	return ret, err
}

func (l *Loader) contextTable(ctx execctx.Context) func(*lua.LState) lua.LValue {
	return func(L *lua.LState) lua.LValue {
		t := L.NewTable()
		t.RawSetString("readOnly", lua.LBool(execctx.IsReadOnly(ctx)))
		if ed, ok := execctx.EditorFrom(ctx); ok {
			t.RawSetString("editor", lua.LString(ed.Name()))
			t.RawSetString("mode", lua.LString(ed.Mode()))
			t.RawSetString("dirty", lua.LBool(ed.Dirty()))
		}
		return t
	}
}

func argsTable(args command.Args) func(*lua.LState) lua.LValue {
	return func(L *lua.LState) lua.LValue {
		return mapToTable(L, args)
	}
}

func (l *Loader) handler(name string) command.Handler {
	return func(ctx execctx.Context, args command.Args) error {
		ret, err := l.call(ctx, name+".exec", argsTable(args), l.contextTable(ctx))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrScript, name, err)
		}
		if ret == lua.LFalse {
			return command.ErrPass
		}
		return nil
	}
}

func (l *Loader) predicate(name string) command.Predicate {
	return func(ctx execctx.Context) bool {
		ret, err := l.call(ctx, name+".isAvailable", l.contextTable(ctx))
		if err != nil {
			l.logger.Error("lua isAvailable failed", "command", name, "error", err)
			return false
		}
		return lua.LVAsBool(ret)
	}
}

// keycmd.add(spec)
func (l *Loader) luaAdd(L *lua.LState) int {
	spec := L.CheckTable(1)

	name := getTableString(L, spec, "name")
	if name == "" {
		L.ArgError(1, "name is required")
		return 0
	}
	exec := getTableFunc(L, spec, "exec")
	if exec == nil {
		L.ArgError(1, "exec must be a function")
		return 0
	}

	cmd := &command.Command{
		Name:        name,
		Description: getTableString(L, spec, "description"),
		BindKey:     getTableString(L, spec, "bindKey"),
		ReadOnly:    getTableBool(L, spec, "readOnly"),
		Source:      l.source,
		Handler:     l.handler(name),
	}
	if cmd.Source == "" {
		cmd.Source = "lua"
	}

	var avail lua.LValue = lua.LNil
	if v := L.GetField(spec, "isAvailable"); v != lua.LNil {
		fn, ok := v.(*lua.LFunction)
		if !ok {
			L.ArgError(1, "isAvailable must be a function")
			return 0
		}
		avail = fn
		cmd.IsAvailable = l.predicate(name)
	}

	if err := l.dispatcher.AddCommand(cmd); err != nil {
		L.RaiseError("keycmd.add: %v", err)
		return 0
	}
	l.handlers.RawSetString(name+".exec", exec)
	l.handlers.RawSetString(name+".isAvailable", avail)
	l.defined[name] = cmd
	return 0
}

// keycmd.exec(name, args) -> bool
func (l *Loader) luaExec(L *lua.LState) int {
	ref := command.ParseRef(L.CheckString(1))
	args := command.Args(tableToMap(L.Get(2)))

	ctx := scriptContext{Context: l.current, loader: l}
	ok, err := l.dispatcher.Exec(ref, ctx, args)
	if err != nil {
		L.RaiseError("keycmd.exec %s: %v", command.RefString(ref), err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

// keycmd.commands() -> {name, ...}
func (l *Loader) luaCommands(L *lua.LState) int {
	t := L.NewTable()
	for _, cmd := range l.dispatcher.Commands() {
		t.Append(lua.LString(cmd.Name))
	}
	L.Push(t)
	return 1
}

// keycmd.log(...) and print(...)
func (l *Loader) luaLog(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	source := l.source
	if source == "" {
		source = "lua"
	}
	l.logger.Info(strings.Join(parts, " "), "source", source)
	return 0
}
