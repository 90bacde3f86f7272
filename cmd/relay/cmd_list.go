package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newListCmd creates the "relay list" subcommand.
func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List live sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.registry.List()
			if err != nil {
				return err
			}
			if len(sessions) == 0 && format == formatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			return renderSessions(cmd.OutOrStdout(), format, sessions)
		},
	}

	addOutputFlag(cmd, &format)
	return cmd
}
