package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"relay/pkg/session"
)

func sampleSessions() []session.Session {
	return []session.Session{
		{
			Name:      "alpha",
			BackendID: "alpha",
			CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
			Status:    session.StatusRunning,
		},
		{
			Name:      "beta",
			BackendID: "beta",
			CreatedAt: time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC),
			Status:    session.StatusAwaiting,
		},
	}
}

func TestRenderSessions(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderSessions(&buf, formatTable, sampleSessions()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !containsAll(out, "NAME", "STATUS", "alpha", "running", "beta", "awaiting-completion") {
			t.Errorf("table output:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderSessions(&buf, formatJSON, sampleSessions()); err != nil {
			t.Fatal(err)
		}
		var decoded []session.Session
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Name != "alpha" {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderSessions(&buf, formatYAML, sampleSessions()); err != nil {
			t.Fatal(err)
		}
		var decoded []session.Session
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Status != session.StatusAwaiting {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("unknown format errors", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderSessions(&buf, "xml", nil); err == nil {
			t.Error("expected an error for unknown format")
		}
	})
}

func TestRenderSession(t *testing.T) {
	var buf bytes.Buffer
	if err := renderSession(&buf, formatTable, sampleSessions()[0]); err != nil {
		t.Fatal(err)
	}
	if !containsAll(buf.String(), "Name:", "alpha", "Status:", "running") {
		t.Errorf("output:\n%s", buf.String())
	}
}
