package command

import (
	"errors"
	"testing"

	"github.com/dshills/keycmd/internal/dispatcher/execctx"
)

func noop(execctx.Context, Args) error { return nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     *Command
		wantErr error
	}{
		{"valid", &Command{Name: "save", Handler: noop}, nil},
		{"nil command", nil, ErrNilHandler},
		{"empty name", &Command{Handler: noop}, ErrEmptyName},
		{"space in name", &Command{Name: "go to", Handler: noop}, ErrInvalidName},
		{"bar in name", &Command{Name: "a|b", Handler: noop}, ErrInvalidName},
		{"nil handler", &Command{Name: "save"}, ErrNilHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	cmd := &Command{Name: "save", Handler: noop}
	if !cmd.Available(nil) {
		t.Error("command without predicate should be available")
	}

	cmd.IsAvailable = func(ctx execctx.Context) bool { return !execctx.IsReadOnly(ctx) }
	if !cmd.Available(execctx.Static(false)) {
		t.Error("expected available for writable context")
	}
	if cmd.Available(execctx.Static(true)) {
		t.Error("expected unavailable for read-only context")
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		bind string
		want []string
	}{
		{"", nil},
		{"Ctrl-S", []string{"Ctrl-S"}},
		{"Ctrl-S|Cmd-S", []string{"Ctrl-S", "Cmd-S"}},
		{" Ctrl-S | | Cmd-S ", []string{"Ctrl-S", "Cmd-S"}},
	}

	for _, tt := range tests {
		cmd := &Command{BindKey: tt.bind}
		got := cmd.Keys()
		if len(got) != len(tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.bind, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Keys(%q)[%d] = %q, want %q", tt.bind, i, got[i], tt.want[i])
			}
		}
	}
}

func TestArgs(t *testing.T) {
	var nilArgs Args
	if nilArgs.String("x") != "" || nilArgs.Bool("x") || nilArgs.Clone() != nil {
		t.Error("nil Args accessors should return zero values")
	}

	args := Args{"text": "hi", "force": true, "n": 3}
	if args.String("text") != "hi" {
		t.Errorf("String(text) = %q", args.String("text"))
	}
	if args.String("n") != "" {
		t.Error("String on non-string value should be empty")
	}
	if !args.Bool("force") {
		t.Error("Bool(force) should be true")
	}

	clone := args.Clone()
	clone["text"] = "bye"
	if args.String("text") != "hi" {
		t.Error("Clone should not share storage")
	}
}

func TestParseRef(t *testing.T) {
	if r, ok := ParseRef(" save ").(Name); !ok || r != "save" {
		t.Errorf("ParseRef(save) = %#v, want Name(save)", ParseRef(" save "))
	}

	list, ok := ParseRef("a| b ||c").(List)
	if !ok {
		t.Fatalf("ParseRef(a|b|c) = %T, want List", ParseRef("a|b|c"))
	}
	if RefString(list) != "a|b|c" {
		t.Errorf("RefString = %q, want a|b|c", RefString(list))
	}
}

func TestRefString(t *testing.T) {
	cmd := &Command{Name: "save"}
	tests := []struct {
		ref  Ref
		want string
	}{
		{nil, "<nil>"},
		{Name("quit"), "quit"},
		{cmd, "save"},
		{List{Name("a"), cmd}, "a|save"},
	}

	for _, tt := range tests {
		if got := RefString(tt.ref); got != tt.want {
			t.Errorf("RefString(%#v) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
