// Package shortcut turns modified key presses into command executions.
//
// A Handler owns a table of chords to command references. Only chords held
// with Ctrl or Meta, and without Alt, are considered; everything else is left
// for the host to process as ordinary input.
package shortcut

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
	"github.com/dshills/keycmd/internal/input/key"
)

// ErrNotShortcut is returned when binding a chord the handler would never
// act on (no Ctrl or Meta, or Alt held).
var ErrNotShortcut = errors.New("shortcut: binding requires Ctrl or Meta without Alt")

// Executor runs command references. *dispatcher.Dispatcher satisfies it.
type Executor interface {
	Exec(ref command.Ref, ctx execctx.Context, args command.Args) (bool, error)
}

// Binding associates a chord with the command reference it runs.
type Binding struct {
	Chord key.Chord
	Ref   command.Ref
}

// String renders the binding as "Ctrl-S -> save".
func (b Binding) String() string {
	return b.Chord.String() + " -> " + command.RefString(b.Ref)
}

// Handler dispatches shortcut key events.
type Handler struct {
	mu       sync.RWMutex
	exec     Executor
	ctx      execctx.Context
	bindings map[key.Chord]command.Ref
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for shortcut activity.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithContext sets the caller context commands run against.
func WithContext(ctx execctx.Context) Option {
	return func(h *Handler) {
		h.ctx = ctx
	}
}

// New creates a handler that executes bound commands through exec.
func New(exec Executor, opts ...Option) *Handler {
	h := &Handler{
		exec:     exec,
		bindings: make(map[key.Chord]command.Ref),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetContext replaces the caller context.
func (h *Handler) SetContext(ctx execctx.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
}

// Context returns the caller context.
func (h *Handler) Context() execctx.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

// Bind binds spec to ref, replacing any previous binding for the chord.
func (h *Handler) Bind(spec string, ref command.Ref) error {
	chord, err := parseShortcut(spec)
	if err != nil {
		return err
	}
	if ref == nil {
		return fmt.Errorf("shortcut: nil command for %s", chord)
	}

	h.mu.Lock()
	h.bindings[chord] = ref
	h.mu.Unlock()
	return nil
}

// Unbind removes the binding for spec. It reports whether one existed.
func (h *Handler) Unbind(spec string) bool {
	chord, err := key.Parse(spec)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.bindings[chord]; !ok {
		return false
	}
	delete(h.bindings, chord)
	return true
}

// Clear removes every binding.
func (h *Handler) Clear() {
	h.mu.Lock()
	h.bindings = make(map[key.Chord]command.Ref)
	h.mu.Unlock()
}

// BindCommands binds every key listed in each command's BindKey.
// When a chord is already bound, the command is added to a candidate list
// so that the most recently bound command is tried first.
func (h *Handler) BindCommands(cmds ...*command.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		for _, spec := range cmd.Keys() {
			chord, err := parseShortcut(spec)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", cmd.Name, err))
				continue
			}
			h.add(chord, command.Name(cmd.Name))
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) add(chord key.Chord, ref command.Ref) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch prev := h.bindings[chord].(type) {
	case nil:
		h.bindings[chord] = ref
	case command.List:
		h.bindings[chord] = append(prev[:len(prev):len(prev)], ref)
	default:
		h.bindings[chord] = command.List{prev, ref}
	}
}

// Lookup returns the reference bound to chord.
func (h *Handler) Lookup(chord key.Chord) (command.Ref, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ref, ok := h.bindings[chord]
	return ref, ok
}

// Bindings returns all bindings sorted by their chord's display form.
func (h *Handler) Bindings() []Binding {
	h.mu.RLock()
	out := make([]Binding, 0, len(h.bindings))
	for chord, ref := range h.bindings {
		out = append(out, Binding{Chord: chord, Ref: ref})
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Chord.String() < out[j].Chord.String()
	})
	return out
}

// HandleKey processes a key event.
//
// If the event is a shortcut candidate and its chord is bound, the bound
// command is executed and handled is true whatever the execution outcome;
// the host should then suppress its default handling of the key. A fault
// raised by the command is returned as err. Shift on a character key is
// ignored when only the unshifted chord is bound.
func (h *Handler) HandleKey(ev key.Event) (handled bool, err error) {
	if !ev.IsShortcut() {
		return false, nil
	}

	h.mu.RLock()
	chord, ref, ok := h.match(ev.Chord())
	ctx := h.ctx
	h.mu.RUnlock()
	if !ok {
		return false, nil
	}

	executed, err := h.exec.Exec(ref, ctx, nil)
	h.logger.Debug("shortcut",
		"key", chord.String(),
		"command", command.RefString(ref),
		"executed", executed,
	)
	if err != nil {
		return true, fmt.Errorf("shortcut %s: %w", chord, err)
	}
	return true, nil
}

// match looks chord up, falling back to the chord without Shift for a
// character key so Ctrl+Shift+S runs a Ctrl-S binding unless Ctrl-Shift-S
// is bound itself. The caller holds h.mu.
func (h *Handler) match(chord key.Chord) (key.Chord, command.Ref, bool) {
	if ref, ok := h.bindings[chord]; ok {
		return chord, ref, true
	}
	if chord.Key == key.KeyRune && chord.Mods.Has(key.ModShift) {
		chord.Mods = chord.Mods.Without(key.ModShift)
		if ref, ok := h.bindings[chord]; ok {
			return chord, ref, true
		}
	}
	return chord, nil, false
}

func parseShortcut(spec string) (key.Chord, error) {
	chord, err := key.Parse(spec)
	if err != nil {
		return key.Chord{}, err
	}
	ev := key.Event{Key: chord.Key, Rune: chord.Rune, Modifiers: chord.Mods}
	if !ev.IsShortcut() {
		return key.Chord{}, fmt.Errorf("%w: %q", ErrNotShortcut, spec)
	}
	return chord, nil
}
