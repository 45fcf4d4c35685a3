package hook_test

import (
	"errors"
	"testing"

	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/hook"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{"debug", msg, args})
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{"info", msg, args})
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{"error", msg, args})
}

func TestAuditHook(t *testing.T) {
	logger := &recordingLogger{}
	h := hook.NewAuditHook(logger)

	if h.Name() != "audit" || h.Priority() != hook.PriorityAudit {
		t.Errorf("unexpected identity %q/%d", h.Name(), h.Priority())
	}

	e := newEvent("save", false)
	if !h.OnExec(e) {
		t.Error("audit hook must not veto")
	}
	h.AfterExec(e)

	e2 := newEvent("save", false)
	e2.Err = errors.New("disk full")
	h.AfterExec(e2)

	if len(logger.entries) != 3 {
		t.Fatalf("got %d log entries, want 3", len(logger.entries))
	}
	if logger.entries[0].msg != "exec start" {
		t.Errorf("entry 0 = %q, want exec start", logger.entries[0].msg)
	}
	if logger.entries[1].msg != "exec complete" {
		t.Errorf("entry 1 = %q, want exec complete", logger.entries[1].msg)
	}
	if logger.entries[2].level != "error" || logger.entries[2].msg != "exec failed" {
		t.Errorf("entry 2 = %+v, want error exec failed", logger.entries[2])
	}
}

func TestAuditHookNilLogger(t *testing.T) {
	h := hook.NewAuditHook(nil)
	e := newEvent("save", false)
	if !h.OnExec(e) {
		t.Error("audit hook must not veto")
	}
	h.AfterExec(e)
}

func TestRepeatHook(t *testing.T) {
	h := hook.NewRepeatHook()

	if cmd, _ := h.Last(); cmd != nil {
		t.Fatal("expected nothing captured initially")
	}

	// Read-only commands are not captured by default.
	h.AfterExec(newEvent("status", true))
	if cmd, _ := h.Last(); cmd != nil {
		t.Errorf("captured read-only command %q", cmd.Name)
	}

	h.AfterExec(newEvent("insert", false))
	cmd, args := h.Last()
	if cmd == nil || cmd.Name != "insert" {
		t.Fatalf("Last() = %v, want insert", cmd)
	}
	if args["n"] != 1 {
		t.Errorf("args = %v, want n=1", args)
	}

	// Returned args are a copy.
	args["n"] = 2
	if _, again := h.Last(); again["n"] != 1 {
		t.Error("Last() should return a copy of args")
	}

	// Failed executions are ignored.
	vetoed := newEvent("delete", false)
	vetoed.Veto("guard")
	h.AfterExec(vetoed)
	if cmd, _ := h.Last(); cmd.Name != "insert" {
		t.Errorf("vetoed command replaced capture: %q", cmd.Name)
	}

	h.Clear()
	if cmd, _ := h.Last(); cmd != nil {
		t.Error("expected Clear to forget capture")
	}
}

func TestRepeatHookCustomPredicate(t *testing.T) {
	h := hook.NewRepeatHook()
	h.Repeatable = func(cmd *command.Command) bool { return cmd.Name == "status" }

	h.AfterExec(newEvent("insert", false))
	h.AfterExec(newEvent("status", true))

	cmd, _ := h.Last()
	if cmd == nil || cmd.Name != "status" {
		t.Errorf("Last() = %v, want status", cmd)
	}
}
