package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/keycmd/internal/dispatcher/command"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var bindings bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List registered commands",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer application.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if bindings {
				fmt.Fprintln(w, "KEY\tCOMMAND")
				for _, b := range application.Keys().Bindings() {
					fmt.Fprintf(w, "%s\t%s\n", b.Chord, command.RefString(b.Ref))
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "NAME\tKEYS\tSOURCE\tFLAGS\tDESCRIPTION")
			for _, c := range application.Dispatcher().Commands() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.Name, strings.Join(c.Keys(), " "), c.Source, commandFlags(c), c.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&bindings, "bindings", "b", false, "list the shortcut table instead")
	return cmd
}

func commandFlags(c *command.Command) string {
	var flags []string
	if c.ReadOnly {
		flags = append(flags, "ro")
	}
	if c.IsAvailable != nil {
		flags = append(flags, "cond")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
