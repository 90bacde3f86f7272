package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"relay/pkg/detect"
	"relay/pkg/dispatch"
)

// sendConfig holds configuration for the send command.
type sendConfig struct {
	session         string
	dir             string
	noWait          bool
	timeoutSecs     int
	skipPermissions bool
}

// newSendCmd creates the "relay send" subcommand.
func newSendCmd() *cobra.Command {
	var cfg sendConfig

	cmd := &cobra.Command{
		Use:   "send <message>...",
		Short: "Send a message to a session and wait for the response",
		Long: "Sends a message to the agent in the target session, creating the session\n" +
			"first if needed. By default the command blocks until the agent finishes\n" +
			"responding and prints the response; --no-wait returns immediately.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			name := cfg.session
			if name == "" {
				name = a.cfg.DefaultSessionName
			}

			dir := cfg.dir
			if dir == "" {
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("get working dir: %w", err)
				}
			}

			timeout := time.Duration(cfg.timeoutSecs) * time.Second
			if cfg.timeoutSecs == 0 {
				timeout = time.Duration(a.cfg.DefaultTimeoutSecs) * time.Second
			}

			skip := a.cfg.SkipPermissions || cfg.skipPermissions
			resp, err := a.dispatcher(skip).Dispatch(cmd.Context(), dispatch.Request{
				Session: name,
				WorkDir: dir,
				Message: strings.Join(args, " "),
				Wait:    !cfg.noWait,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if cfg.noWait {
				fmt.Fprintf(w, "message sent to session %s\n", resp.Session.Name)
				return nil
			}

			res := resp.Result
			switch res.Outcome {
			case detect.Completed:
				fmt.Fprintln(w, res.Window)
				return nil
			case detect.TimedOut:
				if res.Window != "" {
					fmt.Fprintln(w, res.Window)
				}
				return fmt.Errorf("no completion within %s; session %s is still running", timeout, resp.Session.Name)
			case detect.Lost:
				return fmt.Errorf("session lost while waiting: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.session, "session", "s", "", "target session name (default from config)")
	cmd.Flags().StringVarP(&cfg.dir, "dir", "d", "", "working directory if the session must be created")
	cmd.Flags().BoolVar(&cfg.noWait, "no-wait", false, "return immediately after sending")
	cmd.Flags().IntVarP(&cfg.timeoutSecs, "timeout", "t", 0, "seconds to wait for completion (default from config)")
	cmd.Flags().BoolVar(&cfg.skipPermissions, "skip-permissions", false, "launch new sessions with --dangerously-skip-permissions")

	return cmd
}
