// Package tmux wraps the tmux session-management command surface.
// Every relay component that touches the multiplexer goes through this
// package; nothing else shells out to tmux directly.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CmdRunner abstracts command execution for testability.
type CmdRunner interface {
	Run(name string, args ...string) (string, error)
}

// ExecRunner implements CmdRunner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output.
func (e *ExecRunner) Run(name string, args ...string) (string, error) {
	cmd := exec.CommandContext(context.Background(), name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Common errors surfaced from tmux stderr.
var (
	ErrNoServer           = errors.New("no tmux server running")
	ErrSessionExists      = errors.New("session already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe validates session names to prevent shell injection.
// Dots and colons are excluded because tmux treats them as target separators.
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionName checks that a session name contains only safe characters.
func ValidateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidSessionName, name, validSessionNameRe.String())
	}
	return nil
}

// defaultDebounceMs is the delay between pasting text and pressing Enter.
// Claude Code's Ink TUI needs time to process pasted text before Enter
// arrives, otherwise Enter can act on an empty input field.
const defaultDebounceMs = 500

// SessionInfo holds the live view of one tmux session.
type SessionInfo struct {
	Name    string
	Created time.Time
	Path    string
}

// Tmux issues tmux commands through a CmdRunner.
type Tmux struct {
	Runner     CmdRunner
	Sleeper    func(time.Duration) // optional; overrides time.Sleep for testing
	DebounceMs int                 // paste-to-Enter delay; 0 means defaultDebounceMs
}

// New creates a Tmux wrapper with the default ExecRunner.
func New() *Tmux {
	return &Tmux{Runner: &ExecRunner{}}
}

// run executes a tmux subcommand and maps stderr to the error taxonomy.
func (t *Tmux) run(args ...string) (string, error) {
	out, err := t.Runner.Run("tmux", args...)
	if err != nil {
		return "", wrapError(err, out, args)
	}
	return out, nil
}

// wrapError classifies tmux failures by their stderr text.
func wrapError(err error, out string, args []string) error {
	out = strings.TrimSpace(out)

	if strings.Contains(out, "no server running") ||
		strings.Contains(out, "error connecting to") ||
		strings.Contains(out, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(out, "duplicate session") {
		return ErrSessionExists
	}
	if strings.Contains(out, "session not found") ||
		strings.Contains(out, "can't find session") {
		return ErrSessionNotFound
	}

	if out != "" {
		return fmt.Errorf("tmux %s: %s", args[0], out)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable reports whether a tmux binary is present and runnable.
func (t *Tmux) IsAvailable() bool {
	_, err := t.Runner.Run("tmux", "-V")
	return err == nil
}

// HasSession checks whether the named session exists. The "=" prefix forces
// exact matching so "claude-default" does not match "claude-default-2".
func (t *Tmux) HasSession(name string) (bool, error) {
	if err := ValidateSessionName(name); err != nil {
		return false, err
	}
	_, err := t.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSessions returns the name, creation time, and current working
// directory of every live session. A missing server means no sessions,
// not an error.
func (t *Tmux) ListSessions() ([]SessionInfo, error) {
	out, err := t.run("list-sessions", "-F", "#{session_name} #{session_created} #{session_path}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var sessions []SessionInfo
	for _, line := range strings.Split(out, "\n") {
		name, rest, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok || name == "" {
			continue
		}
		// The path comes last because it may itself contain spaces.
		createdStr, path, _ := strings.Cut(rest, " ")
		var created time.Time
		if secs, err := strconv.ParseInt(createdStr, 10, 64); err == nil {
			created = time.Unix(secs, 0)
		}
		sessions = append(sessions, SessionInfo{Name: name, Created: created, Path: path})
	}
	return sessions, nil
}

// NewSession creates a new detached session rooted at workDir.
// A duplicate name surfaces as ErrSessionExists so callers can recover
// by falling back to lookup.
func (t *Tmux) NewSession(name, workDir string) error {
	if err := ValidateSessionName(name); err != nil {
		return err
	}
	if workDir != "" {
		info, err := os.Stat(workDir)
		if err != nil {
			return fmt.Errorf("invalid work directory %q: %w", workDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("work directory %q is not a directory", workDir)
		}
	}

	args := []string{"new-session", "-d", "-s", name}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	if _, err := t.run(args...); err != nil {
		return err
	}
	// tmux 3.3+ sets window-size=manual on detached sessions, which locks the
	// window at 80x24 even after a client attaches. Override so the window
	// resizes to the attaching client.
	_, _ = t.run("set-option", "-wt", name, "window-size", "latest")
	return nil
}

// SendKeys sends text to a session and submits it with Enter.
// The text goes in literal mode (-l) so special characters are not
// interpreted as key names; Enter is sent separately after a debounce so
// the hosted program has processed the paste before submission.
func (t *Tmux) SendKeys(name, text string) error {
	if err := ValidateSessionName(name); err != nil {
		return err
	}
	if _, err := t.run("send-keys", "-t", "="+name, "-l", text); err != nil {
		return err
	}

	debounce := t.DebounceMs
	if debounce == 0 {
		debounce = defaultDebounceMs
	}
	t.sleep(time.Duration(debounce) * time.Millisecond)

	_, err := t.run("send-keys", "-t", "="+name, "Enter")
	return err
}

// CapturePane captures the last lines of the session's pane, most recent last.
func (t *Tmux) CapturePane(name string, lines int) (string, error) {
	if err := ValidateSessionName(name); err != nil {
		return "", err
	}
	return t.run("capture-pane", "-p", "-t", "="+name, "-S", fmt.Sprintf("-%d", lines))
}

// CapturePaneAll captures the full scrollback history.
func (t *Tmux) CapturePaneAll(name string) (string, error) {
	if err := ValidateSessionName(name); err != nil {
		return "", err
	}
	return t.run("capture-pane", "-p", "-t", "="+name, "-S", "-")
}

// PipePane streams all pane output to logPath for the session's remaining
// lifetime. Restarting the pipe on an already-piped pane is harmless, so
// calling this twice with the same path is idempotent.
func (t *Tmux) PipePane(name, logPath string) error {
	if err := ValidateSessionName(name); err != nil {
		return err
	}
	// tmux runs the pipe command through a shell; quote the path.
	pipeCmd := fmt.Sprintf("cat >> %s", shellQuote(logPath))
	_, err := t.run("pipe-pane", "-t", "="+name, pipeCmd)
	return err
}

// KillSession destroys the named session. A session that is already gone
// (or a stopped server) counts as success.
func (t *Tmux) KillSession(name string) error {
	_, err := t.run("kill-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return nil
		}
		return err
	}
	return nil
}

// AttachSession attaches to a session with real terminal I/O. It bypasses
// the CmdRunner so stdin/stdout/stderr connect directly, and blocks until
// the session is detached or exits.
func (t *Tmux) AttachSession(name string) error {
	cmd := exec.CommandContext(context.Background(), "tmux", "attach-session", "-t", "="+name) //nolint:gosec // name is validated
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux attach-session: %w", err)
	}
	return nil
}

// sleep pauses for the given duration, using the injected Sleeper in tests.
func (t *Tmux) sleep(d time.Duration) {
	if t.Sleeper != nil {
		t.Sleeper(d)
		return
	}
	time.Sleep(d)
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
