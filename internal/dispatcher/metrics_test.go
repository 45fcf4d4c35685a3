package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/dshills/keycmd/internal/dispatcher"
	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
	"github.com/dshills/keycmd/internal/dispatcher/hook"
)

func TestMetricsRecording(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	m := d.Metrics()
	if m == nil {
		t.Fatal("expected metrics when enabled")
	}

	ok := newCommand("ok", nil)
	pass := &command.Command{
		Name:    "pass",
		Handler: func(execctx.Context, command.Args) error { return command.ErrPass },
	}
	fail := &command.Command{
		Name:    "fail",
		Handler: func(execctx.Context, command.Args) error { return errors.New("x") },
	}
	edit := newCommand("edit", nil)
	hidden := newCommand("hidden", nil)
	hidden.IsAvailable = func(execctx.Context) bool { return false }
	if err := d.AddCommands(ok, pass, fail, edit, hidden); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_, _ = d.ExecName("ok", nil, nil)
	}
	_, _ = d.ExecName("pass", nil, nil)
	_, _ = d.ExecName("fail", nil, nil)
	_, _ = d.ExecName("missing", nil, nil)
	_, _ = d.ExecName("edit", execctx.Static(true), nil)
	_, _ = d.ExecName("hidden", nil, nil)

	if got := m.TotalExecs(); got != 5 {
		t.Errorf("TotalExecs() = %d, want 5", got)
	}
	if got := m.TotalVetoes(); got != 1 {
		t.Errorf("TotalVetoes() = %d, want 1", got)
	}
	if got := m.TotalErrors(); got != 1 {
		t.Errorf("TotalErrors() = %d, want 1", got)
	}
	if got := m.TotalRejections(); got != 3 {
		t.Errorf("TotalRejections() = %d, want 3", got)
	}
	for _, reason := range []string{dispatcher.ReasonNotFound, dispatcher.ReasonReadOnly, dispatcher.ReasonUnavailable} {
		if got := m.Rejections(reason); got != 1 {
			t.Errorf("Rejections(%s) = %d, want 1", reason, got)
		}
	}

	stats := m.CommandStats("ok")
	if stats == nil || stats.ExecCount != 3 {
		t.Fatalf("CommandStats(ok) = %+v, want 3 execs", stats)
	}
	if stats.SuccessRate() != 100 {
		t.Errorf("SuccessRate() = %v, want 100", stats.SuccessRate())
	}
	if stats.LastStatus != "ok" {
		t.Errorf("LastStatus = %q, want ok", stats.LastStatus)
	}
	if m.CommandStats("pass").LastStatus != "vetoed" {
		t.Error("expected pass to be recorded as vetoed")
	}
	if m.CommandStats("missing") != nil {
		t.Error("rejected commands should not have per-command stats")
	}

	top := m.TopCommands(1)
	if len(top) != 1 || top[0].Name != "ok" {
		t.Errorf("TopCommands(1) = %v, want [ok]", top)
	}
	if len(m.TopCommands(10)) != 3 {
		t.Error("TopCommands should cap at the number of commands")
	}
	for _, n := range []int{0, -1} {
		if got := m.TopCommands(n); len(got) != 0 {
			t.Errorf("TopCommands(%d) = %v, want empty", n, got)
		}
	}

	snap := m.Snapshot()
	if snap.TotalExecs != 5 || snap.CommandCount != 3 {
		t.Errorf("Snapshot() = %+v", snap)
	}

	m.Reset()
	if m.TotalExecs() != 0 || m.TotalRejections() != 0 || m.CommandStats("ok") != nil {
		t.Error("expected Reset to clear metrics")
	}
	if m.AverageDuration() != 0 {
		t.Error("expected zero average after Reset")
	}
}

func TestMetricsVetoByHook(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	d.OnExec("deny", hook.PriorityGuard, func(*hook.Event) bool { return false })

	_, _ = d.Exec(newCommand("x", nil), nil, nil)

	if d.Metrics().TotalVetoes() != 1 {
		t.Errorf("TotalVetoes() = %d, want 1", d.Metrics().TotalVetoes())
	}
}

func TestCommandMetricsZero(t *testing.T) {
	var cm dispatcher.CommandMetrics
	if cm.AverageDuration() != 0 || cm.SuccessRate() != 0 {
		t.Error("zero metrics should report zero values")
	}
}
