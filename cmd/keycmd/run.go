package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keycmd/internal/app"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive terminal session",
		Long: `Start the interactive terminal session.

Key presses are matched against the shortcut table and the bottom line
shows the outcome of the last command. Ctrl-Q quits.

Examples:
  keycmd run
  keycmd run -c ~/.config/keycmd/keycmd.toml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := loadOptions(cmd, flags)
			opts.Watch = watch

			application, err := app.New(opts)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the config file when it changes")
	return cmd
}
