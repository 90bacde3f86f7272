package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// newDashCmd creates the "relay dash" subcommand.
func newDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Launch the interactive session dashboard",
		Long:  "Opens the relay-dash TUI for monitoring live sessions and recent events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dashCmd := exec.CommandContext(cmd.Context(), "relay-dash")
			dashCmd.Stdin = os.Stdin
			dashCmd.Stdout = os.Stdout
			dashCmd.Stderr = os.Stderr

			if err := dashCmd.Run(); err != nil {
				return fmt.Errorf("run relay-dash: %w", err)
			}
			return nil
		},
	}
}
