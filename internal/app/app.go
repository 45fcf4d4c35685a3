package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycmd/internal/config"
	"github.com/dshills/keycmd/internal/dispatcher"
	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
	"github.com/dshills/keycmd/internal/dispatcher/hook"
	"github.com/dshills/keycmd/internal/input/key"
	"github.com/dshills/keycmd/internal/input/shortcut"
	"github.com/dshills/keycmd/internal/input/term"
	"github.com/dshills/keycmd/internal/plugin/lua"
)

// Options configures application startup.
type Options struct {
	// ConfigPath is the TOML or YAML file to load. Empty uses defaults
	// and the environment only.
	ConfigPath string

	// Config, when set, is used as is instead of loading ConfigPath.
	Config *config.Config

	// Logger overrides the logger built from the configuration.
	Logger *slog.Logger

	// LogOutput receives log output when Logger is nil. Defaults to stderr.
	LogOutput io.Writer

	// Screen is the terminal used by Run. Nil opens the real terminal.
	Screen tcell.Screen

	// Watch reloads ConfigPath when it changes while Run is active.
	Watch bool

	// Overrides adjusts every configuration the application applies, the
	// initial one and each reload. Command-line flags use it.
	Overrides func(*config.Config)
}

// Application is a configured keycmd instance.
type Application struct {
	opts Options

	logger     *slog.Logger
	level      *slog.LevelVar
	editor     *execctx.Editor
	dispatcher *dispatcher.Dispatcher
	repeat     *hook.RepeatHook
	keys       *shortcut.Handler
	scripts    *lua.Loader

	mu      sync.Mutex
	cfg     config.Config
	session *term.Session
	closed  bool

	running atomic.Bool
}

// New loads configuration and wires every component.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}

	if opts.Config != nil {
		app.cfg = *opts.Config
		if err := app.cfg.Validate(); err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
	} else {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
		app.cfg = cfg
	}
	if opts.Overrides != nil {
		opts.Overrides(&app.cfg)
		if err := app.cfg.Validate(); err != nil {
			return nil, &InitError{Component: "config", Err: err}
		}
	}

	if opts.Logger != nil {
		app.logger = opts.Logger
	} else {
		logger, level, err := NewLogger(app.cfg.Logging, opts.LogOutput)
		if err != nil {
			return nil, &InitError{Component: "logging", Err: err}
		}
		app.logger, app.level = logger, level
	}

	app.editor = execctx.NewEditor("main")
	app.editor.SetReadOnly(app.cfg.ReadOnly)

	app.dispatcher = dispatcher.New(dispatcherConfig(app.cfg.Dispatcher),
		dispatcher.WithLogger(app.logger))

	app.repeat = hook.NewRepeatHook()
	app.dispatcher.Hooks().Register(app.repeat)

	if err := app.dispatcher.AddCommands(app.builtinCommands()...); err != nil {
		return nil, &InitError{Component: "commands", Err: err}
	}

	app.scripts = lua.NewLoader(app.dispatcher, lua.WithLogger(app.logger.With("component", "lua")))
	for _, path := range app.cfg.ScriptPaths(app.configDir()) {
		if err := app.scripts.LoadFile(path); err != nil {
			_ = app.scripts.Close()
			return nil, &InitError{Component: "scripts", Err: err}
		}
		app.logger.Debug("script loaded", "path", path)
	}

	app.keys = shortcut.New(app.dispatcher,
		shortcut.WithContext(app.editor),
		shortcut.WithLogger(app.logger))
	app.rebind(app.cfg)

	return app, nil
}

func dispatcherConfig(c config.DispatcherConfig) dispatcher.Config {
	return dispatcher.Config{
		CheckCommandState: c.CheckCommandState,
		EnableMetrics:     c.Metrics,
		RecoverFromPanic:  c.RecoverFromPanic,
		Audit:             c.Audit,
	}
}

func (app *Application) configDir() string {
	if app.opts.ConfigPath == "" {
		return ""
	}
	return filepath.Dir(app.opts.ConfigPath)
}

// rebind rebuilds the shortcut table: command BindKeys first, then the
// configured keybindings, which take precedence.
func (app *Application) rebind(cfg config.Config) {
	app.keys.Clear()
	if err := app.keys.BindCommands(app.dispatcher.Commands()...); err != nil {
		app.logger.Warn("invalid command key binding", "error", err)
	}
	for _, spec := range cfg.BindingSpecs() {
		ref := command.ParseRef(cfg.Keybindings[spec])
		if err := app.keys.Bind(spec, ref); err != nil {
			app.logger.Warn("invalid key binding", "key", spec, "error", err)
		}
	}
}

// Run starts the terminal session and blocks until the user quits or ctx
// is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if app.isClosed() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	screen := app.opts.Screen
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return &InitError{Component: "screen", Err: err}
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	defer screen.Fini()

	session := term.NewSession(screen, app.keys, term.WithSessionLogger(app.logger))
	sub := app.dispatcher.Hooks().RegisterAfterExec(session)
	defer sub.Unsubscribe()

	app.mu.Lock()
	app.session = session
	app.mu.Unlock()
	defer func() {
		app.mu.Lock()
		app.session = nil
		app.mu.Unlock()
	}()

	if app.opts.Watch && app.opts.ConfigPath != "" {
		w, err := config.Watch(app.opts.ConfigPath, app.onReload)
		if err != nil {
			app.logger.Warn("config watch disabled", "path", app.opts.ConfigPath, "error", err)
		} else {
			defer w.Close()
		}
	}

	app.logger.Info("session started", "commands", app.dispatcher.Registry().Count())
	err := session.Run(ctx)
	app.logger.Info("session ended")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Exec runs the command reference ref ("name" or "a|b") against the editor.
func (app *Application) Exec(ref string, args command.Args) (bool, error) {
	if app.isClosed() {
		return false, ErrClosed
	}
	return app.dispatcher.Exec(command.ParseRef(ref), app.editor, args)
}

// HandleKey routes a key event through the shortcut table.
func (app *Application) HandleKey(ev key.Event) (bool, error) {
	return app.keys.HandleKey(ev)
}

// Reload applies a new configuration to the running application after
// Options.Overrides. Dispatcher feature flags other than state checking
// need a restart.
func (app *Application) Reload(cfg config.Config) error {
	if app.opts.Overrides != nil {
		app.opts.Overrides(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if app.level != nil {
		level, _ := config.ParseLevel(cfg.Logging.Level)
		app.level.Set(level)
	}
	app.dispatcher.SetCheckCommandState(cfg.Dispatcher.CheckCommandState)
	app.editor.SetReadOnly(cfg.ReadOnly)
	app.rebind(cfg)

	app.mu.Lock()
	app.cfg = cfg
	app.mu.Unlock()
	return nil
}

func (app *Application) onReload(cfg config.Config, err error) {
	if err == nil {
		err = app.Reload(cfg)
	}
	if err != nil {
		app.logger.Error("config reload failed", "error", err)
		return
	}
	app.logger.Info("config reloaded", "path", app.opts.ConfigPath)
}

// Quit ends the running session, if any.
func (app *Application) Quit() {
	app.mu.Lock()
	session := app.session
	app.mu.Unlock()
	if session != nil {
		session.Quit()
	}
}

// Close releases script resources. The application cannot be used after.
func (app *Application) Close() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	app.mu.Unlock()

	app.Quit()
	return app.scripts.Close()
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher { return app.dispatcher }

// Editor returns the editor context commands run against.
func (app *Application) Editor() *execctx.Editor { return app.editor }

// Keys returns the shortcut handler.
func (app *Application) Keys() *shortcut.Handler { return app.keys }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }
