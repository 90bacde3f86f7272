package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// exportConfig holds configuration for the export command.
type exportConfig struct {
	output string
	clean  bool
}

// newExportCmd creates the "relay export" subcommand.
func newExportCmd() *cobra.Command {
	var cfg exportConfig

	cmd := &cobra.Command{
		Use:   "export [session]",
		Short: "Export a session transcript to a file",
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

			out := cfg.output
			if out == "" {
				out = name + ".txt"
			}

			if err := a.transcripts.Export(name, out, cfg.clean); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", name, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.output, "output-file", "O", "", "destination file (default: <session>.txt)")
	cmd.Flags().BoolVar(&cfg.clean, "clean", false, "strip terminal escape sequences")

	return cmd
}
