package dispatcher_test

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/keycmd/internal/dispatcher"
	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
	"github.com/dshills/keycmd/internal/dispatcher/hook"
)

// recorder tracks notifications in the order they fire.
type recorder struct {
	events []string
}

func (r *recorder) attach(d *dispatcher.Dispatcher) {
	d.OnExec("recorder", hook.PriorityDefault, func(e *hook.Event) bool {
		r.events = append(r.events, "exec:"+e.CommandName())
		return true
	})
	d.OnAfterExec("recorder", hook.PriorityDefault, func(e *hook.Event) {
		r.events = append(r.events, "afterExec:"+e.CommandName())
	})
}

func newCommand(name string, calls *[]string) *command.Command {
	return &command.Command{
		Name: name,
		Handler: func(execctx.Context, command.Args) error {
			if calls != nil {
				*calls = append(*calls, name)
			}
			return nil
		},
	}
}

func TestNewWithDefaults(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	if d.Registry() == nil {
		t.Error("expected non-nil registry")
	}
	if d.Hooks() == nil {
		t.Error("expected non-nil hook manager")
	}
	if d.Metrics() != nil {
		t.Error("expected nil metrics by default")
	}
	if !d.CheckCommandState() {
		t.Error("expected state checking on by default")
	}
	if names := d.Hooks().ExecHookNames(); !reflect.DeepEqual(names, []string{"command"}) {
		t.Errorf("ExecHookNames() = %v, want [command]", names)
	}
}

func TestExecRegisteredCommand(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rec := &recorder{}
	rec.attach(d)

	var calls []string
	if err := d.AddCommand(newCommand("save", &calls)); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}

	ok, err := d.Exec(command.Name("save"), execctx.Static(false), nil)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if !ok {
		t.Error("expected Exec to return true")
	}
	if !reflect.DeepEqual(calls, []string{"save"}) {
		t.Errorf("handler calls = %v, want [save]", calls)
	}

	want := []string{"exec:save", "afterExec:save"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("notifications = %v, want %v", rec.events, want)
	}
}

func TestExecUnknownCommand(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rec := &recorder{}
	rec.attach(d)

	ok, err := d.Exec(command.Name("missing"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected false for unknown command")
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no notifications, got %v", rec.events)
	}
}

func TestExecNilRef(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	if ok, err := d.Exec(nil, nil, nil); ok || err != nil {
		t.Errorf("Exec(nil) = %v, %v; want false, nil", ok, err)
	}
	var cmd *command.Command
	if ok, err := d.Exec(cmd, nil, nil); ok || err != nil {
		t.Errorf("Exec(nil *Command) = %v, %v; want false, nil", ok, err)
	}
}

func TestExecReadOnlyContext(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rec := &recorder{}
	rec.attach(d)

	var calls []string
	edit := newCommand("edit", &calls)
	view := newCommand("view", &calls)
	view.ReadOnly = true
	if err := d.AddCommands(edit, view); err != nil {
		t.Fatalf("AddCommands: %v", err)
	}

	editor := execctx.NewEditor("main")
	editor.SetReadOnly(true)

	ok, err := d.Exec(command.Name("edit"), editor, nil)
	if ok || err != nil {
		t.Errorf("Exec(edit) = %v, %v; want false, nil", ok, err)
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no notifications for rejected command, got %v", rec.events)
	}

	ok, err = d.Exec(command.Name("view"), editor, nil)
	if !ok || err != nil {
		t.Errorf("Exec(view) = %v, %v; want true, nil", ok, err)
	}
	if !reflect.DeepEqual(calls, []string{"view"}) {
		t.Errorf("handler calls = %v, want [view]", calls)
	}

	// Without a caller context the read-only rule does not apply.
	ok, _ = d.Exec(command.Name("edit"), nil, nil)
	if !ok {
		t.Error("expected edit to run without a context")
	}
}

func TestExecAvailability(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	rec := &recorder{}
	rec.attach(d)

	var calls []string
	var consulted int
	cmd := newCommand("save", &calls)
	cmd.IsAvailable = func(execctx.Context) bool {
		consulted++
		return false
	}
	if err := d.AddCommand(cmd); err != nil {
		t.Fatal(err)
	}

	ok, _ := d.Exec(command.Name("save"), execctx.Static(false), nil)
	if ok {
		t.Error("expected false when predicate rejects")
	}
	if consulted != 1 {
		t.Errorf("predicate consulted %d times, want 1", consulted)
	}
	if len(rec.events) != 0 || len(calls) != 0 {
		t.Errorf("expected no notifications or calls, got %v / %v", rec.events, calls)
	}

	d.SetCheckCommandState(false)
	if d.CheckCommandState() {
		t.Fatal("expected state checking off")
	}

	ok, _ = d.Exec(command.Name("save"), execctx.Static(false), nil)
	if !ok {
		t.Error("expected true with state checking disabled")
	}
	if consulted != 1 {
		t.Error("predicate should not be consulted when state checking is disabled")
	}
	if len(calls) != 1 {
		t.Errorf("handler calls = %v, want one", calls)
	}
}

func TestExecAvailabilityFromConfig(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithCheckCommandState(false))

	cmd := newCommand("save", nil)
	cmd.IsAvailable = func(execctx.Context) bool { return false }

	if ok, _ := d.Exec(cmd, nil, nil); !ok {
		t.Error("expected predicate to be ignored")
	}
}

func TestExecListReverseOrder(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var tried []string
	mk := func(name string, succeed bool) *command.Command {
		return &command.Command{
			Name: name,
			Handler: func(execctx.Context, command.Args) error {
				tried = append(tried, name)
				if !succeed {
					return command.ErrPass
				}
				return nil
			},
		}
	}
	if err := d.AddCommands(mk("A", true), mk("B", true), mk("C", false)); err != nil {
		t.Fatal(err)
	}

	ok, err := d.Exec(command.Names("A", "B", "C"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected list execution to succeed")
	}
	if want := []string{"C", "B"}; !reflect.DeepEqual(tried, want) {
		t.Errorf("tried = %v, want %v", tried, want)
	}
}

func TestExecListNoneSucceed(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	pass := &command.Command{
		Name:    "pass",
		Handler: func(execctx.Context, command.Args) error { return command.ErrPass },
	}

	ok, err := d.Exec(command.List{command.Name("missing"), pass}, nil, nil)
	if ok || err != nil {
		t.Errorf("Exec = %v, %v; want false, nil", ok, err)
	}

	ok, err = d.Exec(command.List{}, nil, nil)
	if ok || err != nil {
		t.Errorf("Exec(empty list) = %v, %v; want false, nil", ok, err)
	}
}

func TestExecListMixedRefs(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var calls []string
	if err := d.AddCommand(newCommand("named", &calls)); err != nil {
		t.Fatal(err)
	}
	direct := newCommand("direct", &calls)
	direct.IsAvailable = func(execctx.Context) bool { return false }

	ok, _ := d.Exec(command.List{command.Name("named"), direct}, nil, nil)
	if !ok {
		t.Error("expected fallback to named command")
	}
	if !reflect.DeepEqual(calls, []string{"named"}) {
		t.Errorf("calls = %v, want [named]", calls)
	}
}

func TestExecListStopsOnFault(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	boom := errors.New("boom")
	var calls []string
	faulty := &command.Command{
		Name:    "faulty",
		Handler: func(execctx.Context, command.Args) error { return boom },
	}
	first := newCommand("first", &calls)

	ok, err := d.Exec(command.List{first, faulty}, nil, nil)
	if ok || !errors.Is(err, boom) {
		t.Errorf("Exec = %v, %v; want false, boom", ok, err)
	}
	if len(calls) != 0 {
		t.Error("list should stop at a fault")
	}
}

func TestExecVeto(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var calls []string
	if err := d.AddCommand(newCommand("save", &calls)); err != nil {
		t.Fatal(err)
	}

	d.OnExec("guard", hook.PriorityGuard, func(*hook.Event) bool { return false })

	afterCount := 0
	var seen *hook.Event
	d.OnAfterExec("after", 0, func(e *hook.Event) {
		afterCount++
		seen = e
	})

	ok, err := d.Exec(command.Name("save"), nil, nil)
	if ok || err != nil {
		t.Errorf("Exec = %v, %v; want false, nil", ok, err)
	}
	if afterCount != 1 {
		t.Errorf("afterExec fired %d times, want 1", afterCount)
	}
	if seen == nil || seen.VetoedBy != "guard" {
		t.Errorf("event not marked as vetoed by guard: %+v", seen)
	}
	if len(calls) != 0 {
		t.Error("vetoed command should not run its handler")
	}
}

func TestExecHandlerPass(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	afterCount := 0
	d.OnAfterExec("after", 0, func(*hook.Event) { afterCount++ })

	cmd := &command.Command{
		Name:    "maybe",
		Handler: func(execctx.Context, command.Args) error { return command.ErrPass },
	}

	ok, err := d.Exec(cmd, nil, nil)
	if ok || err != nil {
		t.Errorf("Exec = %v, %v; want false, nil", ok, err)
	}
	if afterCount != 1 {
		t.Errorf("afterExec fired %d times, want 1", afterCount)
	}
}

func TestExecHandlerFault(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	boom := errors.New("boom")
	var seen error
	d.OnAfterExec("after", 0, func(e *hook.Event) { seen = e.Err })

	cmd := &command.Command{
		Name:    "explode",
		Handler: func(execctx.Context, command.Args) error { return boom },
	}

	ok, err := d.Exec(cmd, nil, nil)
	if ok {
		t.Error("expected false on fault")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if !errors.Is(seen, boom) {
		t.Error("afterExec should see the fault")
	}
}

func TestExecNilHandler(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	_, err := d.Exec(&command.Command{Name: "empty"}, nil, nil)
	if !errors.Is(err, command.ErrNilHandler) {
		t.Errorf("err = %v, want ErrNilHandler", err)
	}
}

func TestExecPanicPropagates(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	cmd := &command.Command{
		Name:    "panic",
		Handler: func(execctx.Context, command.Args) error { panic("kaboom") },
	}

	defer func() {
		if r := recover(); r != "kaboom" {
			t.Errorf("recover() = %v, want kaboom", r)
		}
	}()
	_, _ = d.Exec(cmd, nil, nil)
	t.Error("expected panic to propagate")
}

func TestExecPanicRecovered(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	d := dispatcher.New(dispatcher.DefaultConfig().WithPanicRecovery(true).WithMetrics(), dispatcher.WithLogger(logger))

	afterCount := 0
	d.OnAfterExec("after", 0, func(*hook.Event) { afterCount++ })

	cmd := &command.Command{
		Name:    "panic",
		Handler: func(execctx.Context, command.Args) error { panic("kaboom") },
	}

	ok, err := d.Exec(cmd, nil, nil)
	if ok {
		t.Error("expected false after panic")
	}
	if !errors.Is(err, dispatcher.ErrPanic) {
		t.Errorf("err = %v, want ErrPanic", err)
	}
	if afterCount != 1 {
		t.Errorf("afterExec fired %d times, want 1", afterCount)
	}
	if d.Metrics().TotalPanics() != 1 {
		t.Errorf("TotalPanics() = %d, want 1", d.Metrics().TotalPanics())
	}
	if !strings.Contains(logs.String(), "exec panic") {
		t.Error("expected panic to be logged")
	}
}

func TestExecPassesContextAndArgs(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	editor := execctx.NewEditor("main")
	var gotCtx execctx.Context
	var gotArgs command.Args
	cmd := &command.Command{
		Name: "insert",
		Handler: func(ctx execctx.Context, args command.Args) error {
			gotCtx, gotArgs = ctx, args
			return nil
		},
	}

	var eventArgs command.Args
	d.OnExec("peek", 0, func(e *hook.Event) bool {
		eventArgs = e.Args
		return true
	})

	if _, err := d.Exec(cmd, editor, command.Args{"text": "x"}); err != nil {
		t.Fatal(err)
	}
	if gotCtx != execctx.Context(editor) {
		t.Error("handler did not receive caller context")
	}
	if gotArgs.String("text") != "x" || eventArgs.String("text") != "x" {
		t.Errorf("args not passed through: %v / %v", gotArgs, eventArgs)
	}
}

func TestHookAfterHandlerSeesOutcome(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var order []string
	d.OnExec("before", hook.PriorityDefault, func(*hook.Event) bool {
		order = append(order, "before")
		return true
	})
	d.OnExec("late", hook.PriorityCommand-1, func(*hook.Event) bool {
		order = append(order, "late")
		return true
	})

	cmd := &command.Command{
		Name: "run",
		Handler: func(execctx.Context, command.Args) error {
			order = append(order, "handler")
			return nil
		},
	}
	if _, err := d.Exec(cmd, nil, nil); err != nil {
		t.Fatal(err)
	}

	if want := []string{"before", "handler", "late"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	calls := 0
	sub := d.OnAfterExec("count", 0, func(*hook.Event) { calls++ })

	cmd := newCommand("x", nil)
	_, _ = d.Exec(cmd, nil, nil)
	sub.Unsubscribe()
	_, _ = d.Exec(cmd, nil, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCheck(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	edit := newCommand("edit", nil)
	hidden := newCommand("hidden", nil)
	hidden.ReadOnly = true
	hidden.IsAvailable = func(execctx.Context) bool { return false }
	if err := d.AddCommands(edit, hidden); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		ref     command.Ref
		ctx     execctx.Context
		wantErr error
	}{
		{"ok", command.Name("edit"), execctx.Static(false), nil},
		{"not found", command.Name("nope"), nil, dispatcher.ErrNotFound},
		{"read-only", command.Name("edit"), execctx.Static(true), dispatcher.ErrReadOnly},
		{"unavailable", command.Name("hidden"), execctx.Static(true), dispatcher.ErrUnavailable},
		{"list falls back", command.Names("edit", "nope"), nil, nil},
		{"list reports first", command.Names("nope", "edit"), execctx.Static(true), dispatcher.ErrNotFound},
		{"empty list", command.List{}, nil, dispatcher.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Check(tt.ref, tt.ctx)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommandRegistration(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	if err := d.AddCommand(&command.Command{Name: "bad"}); !errors.Is(err, command.ErrNilHandler) {
		t.Errorf("AddCommand(no handler) = %v, want ErrNilHandler", err)
	}
	if err := d.AddCommands(newCommand("a", nil), &command.Command{}); !errors.Is(err, command.ErrEmptyName) {
		t.Errorf("AddCommands error = %v, want ErrEmptyName", err)
	}
	if d.Command("a") == nil {
		t.Error("commands before the invalid one should be registered")
	}

	if err := d.AddCommand(newCommand("b", nil)); err != nil {
		t.Fatal(err)
	}
	names := []string{}
	for _, c := range d.Commands() {
		names = append(names, c.Name)
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("Commands() = %v, want [a b]", names)
	}

	if !d.RemoveCommand("a") {
		t.Error("RemoveCommand(a) should succeed")
	}
	if d.RemoveCommand("a") {
		t.Error("second RemoveCommand(a) should fail")
	}
	if ok, _ := d.ExecName("a", nil, nil); ok {
		t.Error("removed command should not execute")
	}
	if ok, _ := d.ExecName("b", nil, nil); !ok {
		t.Error("ExecName(b) should succeed")
	}
}

func TestAuditConfig(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := dispatcher.New(dispatcher.DefaultConfig().WithAudit(), dispatcher.WithLogger(logger))

	if _, err := d.Exec(newCommand("save", nil), nil, nil); err != nil {
		t.Fatal(err)
	}
	_, _ = d.ExecName("missing", nil, nil)

	out := logs.String()
	for _, want := range []string{"exec start", "exec complete", "exec rejected"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestWithHookManager(t *testing.T) {
	m := hook.NewManager()
	d := dispatcher.New(dispatcher.DefaultConfig(), dispatcher.WithHookManager(m))

	if d.Hooks() != m {
		t.Fatal("expected injected hook manager")
	}
	if m.ExecHookCount() != 1 {
		t.Errorf("ExecHookCount() = %d, want command invoker only", m.ExecHookCount())
	}
}

func TestInvokerCannotBeReplaced(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	var calls []string
	if err := d.AddCommand(newCommand("save", &calls)); err != nil {
		t.Fatal(err)
	}

	sub := d.OnExec("command", 0, func(*hook.Event) bool { return true })
	if !errors.Is(sub.Err(), hook.ErrReservedName) {
		t.Errorf("OnExec(command) Err() = %v, want ErrReservedName", sub.Err())
	}
	if sub.Unsubscribe() {
		t.Error("refused subscription should remove nothing")
	}
	if d.Hooks().UnregisterExec("command") {
		t.Error("invoker should not be removable")
	}

	ok, err := d.ExecName("save", nil, nil)
	if err != nil || !ok {
		t.Fatalf("ExecName() = %v, %v, want true, nil", ok, err)
	}
	if !reflect.DeepEqual(calls, []string{"save"}) {
		t.Errorf("handler calls = %v, want [save]", calls)
	}
}
