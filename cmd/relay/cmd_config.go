package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relay/pkg/config"
)

// newConfigCmd creates the "relay config" subcommand tree.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit relay configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigPathCmd(),
	)

	return cmd
}

// newConfigInitCmd creates "relay config init".
func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			if _, err := os.Stat(paths.ConfigPath); err == nil {
				return fmt.Errorf("config already exists at %s", paths.ConfigPath)
			}
			if err := config.Default().Save(paths.ConfigPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", paths.ConfigPath)
			return nil
		},
	}
}

// newConfigShowCmd creates "relay config show".
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			cfg, err := config.Load(paths.ConfigPath)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, key := range []string{
				config.KeySkipPermissions,
				config.KeyDefaultTimeout,
				config.KeyDefaultSessionName,
			} {
				value, _ := cfg.Get(key)
				fmt.Fprintf(w, "%s = %s\n", key, value)
			}
			return nil
		},
	}
}

// newConfigGetCmd creates "relay config get".
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			cfg, err := config.Load(paths.ConfigPath)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

// newConfigSetCmd creates "relay config set".
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			cfg, err := config.Load(paths.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(paths.ConfigPath); err != nil {
				return err
			}
			value, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			return nil
		},
	}
}

// newConfigPathCmd creates "relay config path".
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), paths.ConfigPath)
			return nil
		},
	}
}
