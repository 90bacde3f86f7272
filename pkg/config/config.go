// Package config loads and persists relay's process-wide settings.
//
// The config file is TOML at $RELAY_HOME/config.toml. Writes are
// synchronous and last-write-wins: there is no cross-process lock, so
// concurrent writers from separate processes can lose updates.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownKey is returned by Get/Set for an unrecognized config key.
var ErrUnknownKey = errors.New("unknown config key")

// Recognized keys. Underscore spellings are accepted as aliases.
const (
	KeySkipPermissions    = "skip-permissions"
	KeyDefaultTimeout     = "default-timeout"
	KeyDefaultSessionName = "default-session-name"
)

// Config holds relay's persistent settings.
type Config struct {
	// SkipPermissions launches the agent with its permission checks
	// bypassed. Off unless explicitly enabled.
	SkipPermissions bool `toml:"skip_permissions"`

	// DefaultTimeoutSecs is the completion-wait timeout in seconds used
	// when a dispatch does not supply its own.
	DefaultTimeoutSecs int `toml:"default_timeout_secs"`

	// DefaultSessionName is the session targeted by send when none is named.
	DefaultSessionName string `toml:"default_session_name"`
}

// Default returns the safe-by-default configuration.
func Default() Config {
	return Config{
		SkipPermissions:    false,
		DefaultTimeoutSecs: 300,
		DefaultSessionName: "claude-default",
	}
}

// Load reads the config file at path, filling absent fields with defaults.
// A missing file is not an error: it yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // path comes from resolved relay home
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DefaultTimeoutSecs <= 0 {
		cfg.DefaultTimeoutSecs = Default().DefaultTimeoutSecs
	}
	if cfg.DefaultSessionName == "" {
		cfg.DefaultSessionName = Default().DefaultSessionName
	}
	return cfg, nil
}

// Save writes the config to path, creating the parent directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config holds no secrets
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// canonicalKey maps underscore spellings onto the canonical dashed keys.
func canonicalKey(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Get returns the normalized string form of a config value.
func (c Config) Get(key string) (string, error) {
	switch canonicalKey(key) {
	case KeySkipPermissions:
		return strconv.FormatBool(c.SkipPermissions), nil
	case KeyDefaultTimeout:
		return strconv.Itoa(c.DefaultTimeoutSecs), nil
	case KeyDefaultSessionName:
		return c.DefaultSessionName, nil
	default:
		return "", fmt.Errorf("%w: %q (available: %s, %s, %s)",
			ErrUnknownKey, key, KeySkipPermissions, KeyDefaultTimeout, KeyDefaultSessionName)
	}
}

// Set normalizes and applies a key/value pair. It does not persist; callers
// follow up with Save.
func (c *Config) Set(key, value string) error {
	switch canonicalKey(key) {
	case KeySkipPermissions:
		b, err := ParseBool(value)
		if err != nil {
			return err
		}
		c.SkipPermissions = b
	case KeyDefaultTimeout:
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid timeout value %q: must be a positive number of seconds", value)
		}
		c.DefaultTimeoutSecs = secs
	case KeyDefaultSessionName:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("default session name must not be empty")
		}
		c.DefaultSessionName = value
	default:
		return fmt.Errorf("%w: %q (available: %s, %s, %s)",
			ErrUnknownKey, key, KeySkipPermissions, KeyDefaultTimeout, KeyDefaultSessionName)
	}
	return nil
}

// ParseBool accepts the usual textual spellings of a boolean.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q: use true/false, 1/0, yes/no, on/off", v)
	}
}
