package term

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycmd/internal/dispatcher/hook"
	"github.com/dshills/keycmd/internal/input/key"
)

// KeyHandler consumes key events. *shortcut.Handler satisfies it.
type KeyHandler interface {
	HandleKey(ev key.Event) (handled bool, err error)
}

// Session runs the interactive loop on a tcell screen.
//
// The screen must already be initialised; the caller owns Init and Fini.
// Key events go to the key handler and the bottom row shows the outcome of
// the last executed command. Session is also an afterExec hook so it can be
// registered with the dispatcher to receive those outcomes.
type Session struct {
	screen tcell.Screen
	keys   KeyHandler
	logger *slog.Logger

	mu     sync.Mutex
	status string

	quitOnce sync.Once
	quit     chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session reading keys from screen.
func NewSession(screen tcell.Screen, keys KeyHandler, opts ...SessionOption) *Session {
	s := &Session{
		screen: screen,
		keys:   keys,
		logger: slog.New(slog.DiscardHandler),
		status: "ready",
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements hook.Hook.
func (s *Session) Name() string { return "term.status" }

// Priority implements hook.Hook.
func (s *Session) Priority() int { return hook.PriorityDefault }

// AfterExec records the outcome of a command for the status line.
func (s *Session) AfterExec(e *hook.Event) {
	msg := fmt.Sprintf("%s: %s", e.CommandName(), e.Status())
	if e.Err != nil {
		msg = fmt.Sprintf("%s: failed: %v", e.CommandName(), e.Err)
	}
	s.SetStatus(msg)
}

// SetStatus sets the status line text.
func (s *Session) SetStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

// Status returns the status line text.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Quit stops Run. It is safe to call more than once and from any goroutine.
func (s *Session) Quit() {
	s.quitOnce.Do(func() {
		close(s.quit)
		// Wake up PollEvent.
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
}

// Done is closed once Quit has been called.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}

// Run processes events until Quit is called, ctx is cancelled or the screen
// is finalised.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.Quit)
	defer stop()

	s.draw()
	for {
		select {
		case <-s.quit:
			return ctx.Err()
		default:
		}

		ev := s.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			s.handleKey(FromTcell(e))
		case *tcell.EventResize:
			s.screen.Sync()
		}
		s.draw()
	}
}

func (s *Session) handleKey(ev key.Event) {
	handled, err := s.keys.HandleKey(ev)
	if err != nil {
		s.logger.Error("key handling failed", "key", ev.String(), "error", err)
		s.SetStatus(err.Error())
		return
	}
	if !handled && ev.IsShortcut() {
		s.SetStatus(ev.String() + " is not bound")
	}
}

func (s *Session) draw() {
	w, h := s.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}

	style := tcell.StyleDefault.Reverse(true)
	row := h - 1
	text := []rune(" " + s.Status())
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(text) {
			r = text[x]
		}
		s.screen.SetContent(x, row, r, nil, style)
	}
	s.screen.Show()
}
