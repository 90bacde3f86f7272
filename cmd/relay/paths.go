package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// relayDir is the per-user state directory name under $HOME.
const relayDir = ".relay"

// Paths holds all resolved relay state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	RelayHome    string // ~/.relay or RELAY_HOME
	ConfigPath   string // config.toml or RELAY_CONFIG_PATH
	LogDir       string // $RELAY_HOME/logs
	MarkerDir    string // $TMPDIR/relay or RELAY_MARKER_DIR
	EventsDBPath string // events.db or RELAY_EVENTS_DB
}

// ResolvePaths returns all relay paths, respecting env var overrides.
// Environment variables:
//   - RELAY_HOME: base directory for relay state (default: ~/.relay)
//   - RELAY_CONFIG_PATH: config file (default: $RELAY_HOME/config.toml)
//   - RELAY_MARKER_DIR: completion marker directory (default: $TMPDIR/relay)
//   - RELAY_EVENTS_DB: event log database (default: $RELAY_HOME/events.db)
//
// The marker directory defaults under the system temp dir rather than
// RELAY_HOME so the agent-side hook can write there with a short,
// predictable path.
func ResolvePaths() (*Paths, error) {
	home, err := resolveRelayHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		RelayHome:    home,
		ConfigPath:   resolvePathWithEnv("RELAY_CONFIG_PATH", home, "config.toml"),
		LogDir:       filepath.Join(home, "logs"),
		MarkerDir:    markerDir(),
		EventsDBPath: resolvePathWithEnv("RELAY_EVENTS_DB", home, "events.db"),
	}, nil
}

// resolveRelayHome returns the relay home directory from RELAY_HOME or ~/.relay.
func resolveRelayHome() (string, error) {
	if v := os.Getenv("RELAY_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, relayDir), nil
}

func markerDir() string {
	if v := os.Getenv("RELAY_MARKER_DIR"); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "relay")
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
