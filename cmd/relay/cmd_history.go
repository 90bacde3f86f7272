package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// historyConfig holds configuration for the history command.
type historyConfig struct {
	lines  int
	follow bool
}

// newHistoryCmd creates the "relay history" subcommand.
func newHistoryCmd() *cobra.Command {
	var cfg historyConfig

	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "Show recent session output",
		Long:  "Prints the tail of the session transcript, preferring the transcript log\nand falling back to a live pane capture. --follow streams new output.",
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

			w := cmd.OutOrStdout()
			out, err := a.transcripts.History(name, cfg.lines)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)

			if cfg.follow {
				return a.transcripts.Follow(cmd.Context(), name, w)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&cfg.lines, "lines", "n", 50, "number of lines to show")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "keep streaming new output")

	return cmd
}
