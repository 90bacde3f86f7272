package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"relay/pkg/eventlog"
	"relay/pkg/session"
	"relay/pkg/tmux"
)

// dataSource pulls dashboard data from the live backends. Sessions come
// from tmux, recent lifecycle events from the audit log. A missing event
// log leaves the events pane empty instead of failing the dashboard.
type dataSource struct {
	registry  *session.Registry
	events    *eventlog.Log
	markerDir string
}

func newDataSource() (*dataSource, error) {
	backend := tmux.New()
	if !backend.IsAvailable() {
		return nil, fmt.Errorf("tmux not found in PATH")
	}

	home := relayHome()
	events, err := eventlog.Open(context.Background(), eventsDBPath(home))
	if err != nil {
		events = nil
	}

	return &dataSource{
		registry:  session.NewRegistry(backend, filepath.Join(home, "logs")),
		events:    events,
		markerDir: markerDir(),
	}, nil
}

func (s *dataSource) Close() {
	_ = s.events.Close()
}

func (s *dataSource) sessions() ([]session.Session, error) {
	return s.registry.List()
}

func (s *dataSource) recentEvents(n int) []eventlog.Event {
	if s.events == nil {
		return nil
	}
	events, err := s.events.Query(context.Background(), eventlog.QueryOpts{Limit: n})
	if err != nil {
		return nil
	}
	return events
}

// relayHome mirrors the CLI's RELAY_HOME resolution.
func relayHome() string {
	if v := os.Getenv("RELAY_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".relay")
}

func eventsDBPath(home string) string {
	if v := os.Getenv("RELAY_EVENTS_DB"); v != "" {
		return v
	}
	return filepath.Join(home, "events.db")
}

func markerDir() string {
	if v := os.Getenv("RELAY_MARKER_DIR"); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "relay")
}
