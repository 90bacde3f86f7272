package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"relay/pkg/config"
	"relay/pkg/detect"
	"relay/pkg/dispatch"
	"relay/pkg/eventlog"
	"relay/pkg/session"
	"relay/pkg/tmux"
)

// app wires the backend, registry, and event log for one command run.
// Commands that only touch config or paths do not build an app.
type app struct {
	paths       *Paths
	cfg         config.Config
	backend     *tmux.Tmux
	registry    *session.Registry
	transcripts *session.Transcripts
	events      *eventlog.Log
}

// newApp resolves paths and config and connects to the terminal backend.
// A broken event log is downgraded to a warning: auditing is optional,
// session management is not.
func newApp(ctx context.Context) (*app, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	backend := tmux.New()
	if !backend.IsAvailable() {
		return nil, fmt.Errorf("tmux not found in PATH")
	}

	events, err := eventlog.Open(ctx, paths.EventsDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: event log unavailable: %v\n", err)
		events = nil
	}

	registry := session.NewRegistry(backend, paths.LogDir)
	return &app{
		paths:       paths,
		cfg:         cfg,
		backend:     backend,
		registry:    registry,
		transcripts: &session.Transcripts{Backend: backend, Registry: registry},
		events:      events,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	_ = a.events.Close()
}

// detector builds the completion detector over this app's backend.
func (a *app) detector() *detect.Detector {
	return &detect.Detector{
		Panes:     a.backend,
		MarkerDir: a.paths.MarkerDir,
	}
}

// dispatcher builds a dispatcher. skipPermissions applies only when the
// dispatch has to launch a fresh agent.
func (a *app) dispatcher(skipPermissions bool) *dispatch.Dispatcher {
	return &dispatch.Dispatcher{
		Registry:       a.registry,
		Launcher:       &session.Launcher{Backend: a.backend, SkipPermissions: skipPermissions},
		Detector:       a.detector(),
		Events:         a.events,
		DefaultTimeout: time.Duration(a.cfg.DefaultTimeoutSecs) * time.Second,
	}
}
