package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keycmd/internal/app"
	"github.com/dshills/keycmd/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	readOnly   bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "keycmd",
		Short: "keycmd - keyboard command dispatcher",
		Long: `keycmd dispatches named commands from keyboard shortcuts, scripts
and the command line.

Commands come from the builtin set and from Lua scripts listed in the
configuration file. Shortcuts map key chords such as Ctrl-S to a command
or to a "|"-separated list of commands tried from last to first.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file path (TOML or YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.BoolVarP(&flags.readOnly, "read-only", "R", false, "start with a read-only editor")

	root.AddCommand(
		newRunCmd(flags),
		newExecCmd(flags),
		newListCmd(flags),
	)
	return root
}

// loadOptions builds application options from the flags. The flag values
// are applied as overrides so they also hold across config reloads. Logs
// go to the command's error stream.
func loadOptions(cmd *cobra.Command, flags *globalFlags) app.Options {
	return app.Options{
		ConfigPath: flags.configPath,
		LogOutput:  cmd.ErrOrStderr(),
		Overrides:  flags.apply,
	}
}

func (f *globalFlags) apply(cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.readOnly {
		cfg.ReadOnly = true
	}
}

func newApp(cmd *cobra.Command, flags *globalFlags) (*app.Application, error) {
	return app.New(loadOptions(cmd, flags))
}
