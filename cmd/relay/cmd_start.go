package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relay/pkg/dispatch"
	"relay/pkg/session"
)

// startConfig holds configuration for the start command.
type startConfig struct {
	dir             string
	skipPermissions bool
	unique          bool
}

// newStartCmd creates the "relay start" subcommand.
func newStartCmd() *cobra.Command {
	var cfg startConfig

	cmd := &cobra.Command{
		Use:   "start [session]",
		Short: "Start a session without sending a message",
		Long:  "Creates the named session (default from config) and launches the agent in it.\nStarting an already-running session is a no-op.",
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
			if cfg.unique {
				name = session.GenerateName(name)
			}

			dir := cfg.dir
			if dir == "" {
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("get working dir: %w", err)
				}
			}

			skip := a.cfg.SkipPermissions || cfg.skipPermissions
			resp, err := a.dispatcher(skip).Dispatch(cmd.Context(), dispatch.Request{
				Session: name,
				WorkDir: dir,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if resp.Created {
				fmt.Fprintf(w, "started session %s\n", resp.Session.Name)
			} else {
				fmt.Fprintf(w, "session %s already running\n", resp.Session.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.dir, "dir", "d", "", "working directory for the session (default: current directory)")
	cmd.Flags().BoolVar(&cfg.skipPermissions, "skip-permissions", false, "launch the agent with --dangerously-skip-permissions")
	cmd.Flags().BoolVar(&cfg.unique, "unique", false, "append a random suffix to the session name")

	return cmd
}
