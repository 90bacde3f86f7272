package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SkipPermissions {
		t.Error("SkipPermissions must default to false")
	}
	if cfg.DefaultTimeoutSecs != 300 {
		t.Errorf("DefaultTimeoutSecs = %d, want 300", cfg.DefaultTimeoutSecs)
	}
	if cfg.DefaultSessionName != "claude-default" {
		t.Errorf("DefaultSessionName = %q", cfg.DefaultSessionName)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load of missing file = %+v, want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Config{SkipPermissions: true, DefaultTimeoutSecs: 120, DefaultSessionName: "demo"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip: got %+v, want %+v", got, cfg)
	}
}

func TestLoadFillsAbsentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("skip_permissions = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.SkipPermissions {
		t.Error("SkipPermissions not loaded")
	}
	if cfg.DefaultTimeoutSecs != 300 || cfg.DefaultSessionName != "claude-default" {
		t.Errorf("absent fields not defaulted: %+v", cfg)
	}
}

func TestSetGet(t *testing.T) {
	t.Run("boolean spellings normalize", func(t *testing.T) {
		for _, v := range []string{"true", "1", "yes", "on", "YES", "On"} {
			cfg := Default()
			if err := cfg.Set("skip-permissions", v); err != nil {
				t.Fatalf("Set(%q) returned error: %v", v, err)
			}
			got, err := cfg.Get("skip-permissions")
			if err != nil || got != "true" {
				t.Errorf("Get after Set(%q) = (%q, %v), want (true, nil)", v, got, err)
			}
		}
		for _, v := range []string{"false", "0", "no", "off"} {
			cfg := Config{SkipPermissions: true}
			if err := cfg.Set("skip-permissions", v); err != nil {
				t.Fatalf("Set(%q) returned error: %v", v, err)
			}
			if cfg.SkipPermissions {
				t.Errorf("Set(%q) did not clear the flag", v)
			}
		}
	})

	t.Run("underscore aliases accepted", func(t *testing.T) {
		cfg := Default()
		if err := cfg.Set("skip_permissions", "yes"); err != nil {
			t.Fatalf("Set with underscore key returned error: %v", err)
		}
		if got, _ := cfg.Get("skip_permissions"); got != "true" {
			t.Errorf("Get with underscore key = %q, want true", got)
		}
	})

	t.Run("timeout must be a positive integer", func(t *testing.T) {
		cfg := Default()
		if err := cfg.Set("default-timeout", "90"); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if cfg.DefaultTimeoutSecs != 90 {
			t.Errorf("DefaultTimeoutSecs = %d, want 90", cfg.DefaultTimeoutSecs)
		}
		for _, bad := range []string{"0", "-5", "abc", ""} {
			if err := cfg.Set("default-timeout", bad); err == nil {
				t.Errorf("Set(default-timeout, %q) accepted an invalid value", bad)
			}
		}
	})

	t.Run("session name must be non-empty", func(t *testing.T) {
		cfg := Default()
		if err := cfg.Set("default-session-name", "  "); err == nil {
			t.Error("Set accepted a blank session name")
		}
		if err := cfg.Set("default-session-name", "work"); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if got, _ := cfg.Get("default-session-name"); got != "work" {
			t.Errorf("Get = %q, want work", got)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		cfg := Default()
		if err := cfg.Set("bogus", "1"); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Set(bogus) = %v, want ErrUnknownKey", err)
		}
		if _, err := cfg.Get("bogus"); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Get(bogus) = %v, want ErrUnknownKey", err)
		}
	})
}

func TestParseBoolInvalid(t *testing.T) {
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("ParseBool accepted an invalid spelling")
	}
}
