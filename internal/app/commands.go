package app

import (
	"github.com/dshills/keycmd/internal/dispatcher/command"
	"github.com/dshills/keycmd/internal/dispatcher/execctx"
)

// Builtin command names.
const (
	CmdQuit             = "app.quit"
	CmdToggleReadOnly   = "app.toggleReadOnly"
	CmdToggleCheckState = "app.toggleCheckState"
	CmdRepeatLast       = "app.repeatLast"
	CmdShowMetrics      = "app.showMetrics"
	CmdSave             = "save"
	CmdModify           = "edit.modify"
)

func (app *Application) builtinCommands() []*command.Command {
	return []*command.Command{
		{
			Name:        CmdQuit,
			Description: "Quit the session",
			BindKey:     "Ctrl-Q|Command-Q",
			ReadOnly:    true,
			Source:      "builtin",
			Handler: func(execctx.Context, command.Args) error {
				app.Quit()
				return nil
			},
		},
		{
			Name:        CmdToggleReadOnly,
			Description: "Toggle the editor read-only flag",
			BindKey:     "Ctrl-R",
			ReadOnly:    true,
			Source:      "builtin",
			Handler: func(ctx execctx.Context, _ command.Args) error {
				ed := app.editorFrom(ctx)
				ed.SetReadOnly(!ed.ReadOnly())
				app.logger.Info("read-only toggled", "readOnly", ed.ReadOnly())
				return nil
			},
		},
		{
			Name:        CmdToggleCheckState,
			Description: "Toggle availability checks",
			BindKey:     "Ctrl-K",
			ReadOnly:    true,
			Source:      "builtin",
			Handler: func(execctx.Context, command.Args) error {
				on := !app.dispatcher.CheckCommandState()
				app.dispatcher.SetCheckCommandState(on)
				app.logger.Info("availability checks toggled", "enabled", on)
				return nil
			},
		},
		{
			Name:        CmdRepeatLast,
			Description: "Repeat the last editing command",
			BindKey:     "Ctrl-Y",
			ReadOnly:    true,
			Source:      "builtin",
			Handler: func(ctx execctx.Context, _ command.Args) error {
				cmd, args := app.repeat.Last()
				if cmd == nil {
					return command.ErrPass
				}
				ok, err := app.dispatcher.Exec(cmd, ctx, args)
				if err != nil {
					return err
				}
				if !ok {
					return command.ErrPass
				}
				return nil
			},
		},
		{
			Name:        CmdShowMetrics,
			Description: "Log dispatcher statistics",
			BindKey:     "Ctrl-T",
			ReadOnly:    true,
			Source:      "builtin",
			IsAvailable: func(execctx.Context) bool {
				return app.dispatcher.Metrics() != nil
			},
			Handler: func(execctx.Context, command.Args) error {
				m := app.dispatcher.Metrics()
				snap := m.Snapshot()
				app.logger.Info("dispatcher metrics",
					"execs", snap.TotalExecs,
					"vetoes", snap.TotalVetoes,
					"errors", snap.TotalErrors,
					"rejections", snap.TotalRejections,
					"avg", snap.AverageDuration,
				)
				for _, cm := range m.TopCommands(5) {
					app.logger.Info("command metrics",
						"command", cm.Name,
						"execs", cm.ExecCount,
						"successRate", cm.SuccessRate(),
					)
				}
				return nil
			},
		},
		{
			Name:        CmdSave,
			Description: "Save the current document",
			BindKey:     "Ctrl-S|Command-S",
			Source:      "builtin",
			IsAvailable: func(ctx execctx.Context) bool {
				return app.editorFrom(ctx).Dirty()
			},
			Handler: func(ctx execctx.Context, _ command.Args) error {
				ed := app.editorFrom(ctx)
				ed.SetDirty(false)
				app.logger.Info("saved", "editor", ed.Name())
				return nil
			},
		},
		{
			Name:        CmdModify,
			Description: "Mark the current document as modified",
			BindKey:     "Ctrl-E",
			Source:      "builtin",
			Handler: func(ctx execctx.Context, args command.Args) error {
				ed := app.editorFrom(ctx)
				ed.SetDirty(true)
				if text := args.String("text"); text != "" {
					ed.Set("lastEdit", text)
				}
				return nil
			},
		},
	}
}

// editorFrom returns the editor behind ctx, falling back to the
// application's own editor for callers that pass another context.
func (app *Application) editorFrom(ctx execctx.Context) *execctx.Editor {
	if ed, ok := execctx.EditorFrom(ctx); ok {
		return ed
	}
	return app.editor
}
