package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newAttachCmd creates the "relay attach" subcommand.
func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [session]",
		Short: "Attach the current terminal to a session",
		Long:  "Hands the terminal over to tmux for the named session.\nDetach with the usual tmux prefix (C-b d); the session keeps running.",
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

			exists, err := a.backend.HasSession(name)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("session %s is not running", name)
			}
			return a.backend.AttachSession(name)
		},
	}
}
