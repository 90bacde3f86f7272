package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relay/pkg/detect"
	"relay/pkg/eventlog"
)

// newKillCmd creates the "relay kill" subcommand.
func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <session>...",
		Short: "Terminate sessions",
		Long:  "Kills the named backend sessions. Killing a session that is not running\nis not an error.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, name := range args {
				if err := a.registry.Kill(name); err != nil {
					return err
				}
				cleanupMarker(a, name)
				_ = a.events.Record(cmd.Context(), eventlog.TypeKilled, name, "")
				fmt.Fprintf(cmd.OutOrStdout(), "killed session %s\n", name)
			}
			return nil
		},
	}
}

// newKillAllCmd creates the "relay kill-all" subcommand.
func newKillAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill-all",
		Short: "Terminate every live session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			killed, err := a.registry.KillAll()
			for _, name := range killed {
				cleanupMarker(a, name)
				_ = a.events.Record(context.Background(), eventlog.TypeKilled, name, "")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "killed %d session(s)\n", len(killed))
			return nil
		},
	}
}

// cleanupMarker discards a completion marker a killed session may have
// left behind.
func cleanupMarker(a *app, name string) {
	_ = os.Remove(detect.MarkerPath(a.paths.MarkerDir, name))
}
