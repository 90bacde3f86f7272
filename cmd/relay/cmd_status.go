package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"relay/pkg/session"
	"relay/pkg/tmux"
)

// newStatusCmd creates the "relay status" subcommand.
func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status [session]",
		Short: "Show a session's status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			name := a.cfg.DefaultSessionName
			if len(args) == 1 {
				name = args[0]
			}

			sess, err := a.registry.Lookup(name)
			if errors.Is(err, tmux.ErrSessionNotFound) {
				sess = session.Session{Name: name, Status: session.StatusDead}
			} else if err != nil {
				return err
			}

			if sess.Status == session.StatusDead && format == formatTable {
				fmt.Fprintf(cmd.OutOrStdout(), "session %s is not running\n", name)
				return nil
			}
			return renderSession(cmd.OutOrStdout(), format, sess)
		},
	}

	addOutputFlag(cmd, &format)
	return cmd
}
