package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"relay/pkg/eventlog"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail      int
	eventType string
	follow    bool
}

// newLogsCmd creates the "relay logs" subcommand.
func newLogsCmd() *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs [session]",
		Short: "Query the session event log",
		Long:  "Displays lifecycle events (created, message_sent, completed, timed_out,\nlost, killed) from the audit log, optionally filtered by session.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sessionName string
			if len(args) == 1 {
				sessionName = args[0]
			}

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			log, err := eventlog.Open(cmd.Context(), paths.EventsDBPath)
			if err != nil {
				return fmt.Errorf("open event log: %w", err)
			}
			defer log.Close()

			w := cmd.OutOrStdout()
			if cfg.follow {
				return followEvents(cmd.Context(), log, w, sessionName, cfg)
			}
			return printEvents(cmd.Context(), log, w, sessionName, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().StringVar(&cfg.eventType, "type", "", "filter by event type")
	cmd.Flags().BoolVarP(&cfg.follow, "follow", "f", false, "poll for new events every 1s")

	return cmd
}

// printEvents shows the most recent matching events, oldest first.
func printEvents(ctx context.Context, log *eventlog.Log, w io.Writer, sessionName string, cfg logsConfig) error {
	events, err := log.Query(ctx, eventlog.QueryOpts{
		Session: sessionName,
		Type:    cfg.eventType,
		Limit:   cfg.tail,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSESSION\tDETAIL")
	// Query returns newest first; display oldest first.
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Type, e.Session, truncate(e.Detail, 60))
	}
	return tw.Flush()
}

// followEvents prints matching events as they arrive until ctx is cancelled.
func followEvents(ctx context.Context, log *eventlog.Log, w io.Writer, sessionName string, cfg logsConfig) error {
	if err := printEvents(ctx, log, w, sessionName, cfg); err != nil {
		return err
	}

	since := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		events, err := log.Query(ctx, eventlog.QueryOpts{
			Session: sessionName,
			Type:    cfg.eventType,
			Since:   &since,
		})
		if err != nil {
			return err
		}
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			fmt.Fprintf(w, "%s  %s  %s  %s\n",
				e.CreatedAt.Local().Format(time.DateTime), e.Type, e.Session, truncate(e.Detail, 60))
			// The Since filter is inclusive, so step past this event.
			if !e.CreatedAt.Before(since) {
				since = e.CreatedAt.Add(time.Nanosecond)
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
