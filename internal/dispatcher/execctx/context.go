// Package execctx defines the caller context commands execute against.
package execctx

import "sync"

// Context is the invoking environment's state as seen by the dispatcher.
// The dispatcher only inspects ReadOnly; everything else is passed through
// to command handlers and availability predicates untouched.
type Context interface {
	ReadOnly() bool
}

// Editor is the caller context used by the application.
// It is safe for concurrent use.
type Editor struct {
	mu sync.RWMutex

	name     string
	readOnly bool
	dirty    bool
	mode     string

	// Data holds handler-specific context data.
	data map[string]any
}

// NewEditor creates an editor context with the given name.
func NewEditor(name string) *Editor {
	return &Editor{
		name: name,
		mode: "normal",
		data: make(map[string]any),
	}
}

// Name returns the editor name.
func (e *Editor) Name() string {
	return e.name
}

// ReadOnly implements Context.
func (e *Editor) ReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// SetReadOnly sets the read-only flag.
func (e *Editor) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = readOnly
}

// Dirty reports whether the editor has unsaved changes.
func (e *Editor) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// SetDirty marks the editor as modified or clean.
func (e *Editor) SetDirty(dirty bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = dirty
}

// Mode returns the current mode name.
func (e *Editor) Mode() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// SetMode switches the current mode.
func (e *Editor) SetMode(mode string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
}

// Get returns a context value.
func (e *Editor) Get(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[key]
	return v, ok
}

// Set stores a context value.
func (e *Editor) Set(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[key] = value
}

// IsReadOnly reports whether ctx is non-nil and read-only.
func IsReadOnly(ctx Context) bool {
	return ctx != nil && ctx.ReadOnly()
}

// Static is a fixed-flag Context, handy for callers without editor state.
type Static bool

// ReadOnly implements Context.
func (s Static) ReadOnly() bool { return bool(s) }

// Unwrap returns the innermost context of a chain of wrappers. A wrapper is
// any Context with an Unwrap() Context method.
func Unwrap(ctx Context) Context {
	for {
		w, ok := ctx.(interface{ Unwrap() Context })
		if !ok {
			return ctx
		}
		inner := w.Unwrap()
		if inner == nil {
			return ctx
		}
		ctx = inner
	}
}

// EditorFrom returns the *Editor underlying ctx, if any.
func EditorFrom(ctx Context) (*Editor, bool) {
	ed, ok := Unwrap(ctx).(*Editor)
	return ed, ok && ed != nil
}
