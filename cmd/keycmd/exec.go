package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/keycmd/internal/dispatcher/command"
)

var errNotExecuted = errors.New("command not executed")

func newExecCmd(flags *globalFlags) *cobra.Command {
	var rawArgs []string

	cmd := &cobra.Command{
		Use:   "exec <command>...",
		Short: "Execute commands without starting a session",
		Long: `Execute one or more command references in order against a fresh editor.

A reference is a command name or a "|"-separated list tried from last to
first. Execution stops at the first reference that is not executed.

Examples:
  keycmd exec edit.modify save
  keycmd exec "save|edit.modify"
  keycmd exec edit.modify --arg text=hello`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, refs []string) error {
			args, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}

			application, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			for _, ref := range refs {
				ok, err := application.Exec(ref, args)
				if err != nil {
					fmt.Fprintf(out, "%s: failed\n", ref)
					return fmt.Errorf("%s: %w", ref, err)
				}
				if !ok {
					fmt.Fprintf(out, "%s: not executed\n", ref)
					return fmt.Errorf("%s: %w", ref, errNotExecuted)
				}
				fmt.Fprintf(out, "%s: ok\n", ref)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&rawArgs, "arg", "a", nil, "command argument as key=value (repeatable)")
	return cmd
}

// parseArgs turns key=value pairs into command arguments. Values that parse
// as booleans or integers are passed typed.
func parseArgs(pairs []string) (command.Args, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make(command.Args, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q (want key=value)", pair)
		}
		if b, err := strconv.ParseBool(v); err == nil {
			args[k] = b
		} else if n, err := strconv.Atoi(v); err == nil {
			args[k] = n
		} else {
			args[k] = v
		}
	}
	return args, nil
}
