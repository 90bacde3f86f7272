package main

import (
	"fmt"

	"relay/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root relay command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "relay",
		Short:         "Manage long-running Claude Code terminal sessions",
		Long:          "relay hosts Claude Code sessions inside tmux, relays messages to them,\nand detects when the agent has finished responding.",
		Version:       fmt.Sprintf("relay %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newStartCmd(),
		newSendCmd(),
		newListCmd(),
		newAttachCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newKillCmd(),
		newKillAllCmd(),
		newLogsCmd(),
		newConfigCmd(),
		newDashCmd(),
	)

	return cmd
}
