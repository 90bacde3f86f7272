package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// claudeBinary is the agent CLI started inside each session.
const claudeBinary = "claude"

// Launcher starts the agent inside a freshly created backend session.
// Transcript logging must be wired before the agent produces any output,
// so Start enables pipe-pane before sending the launch command.
type Launcher struct {
	Backend         Backend
	SkipPermissions bool

	// Warn receives the unsafe-mode notice; defaults to os.Stderr.
	Warn io.Writer
}

// Command returns the agent launch command line.
func (l *Launcher) Command() []string {
	cmd := []string{claudeBinary}
	if l.SkipPermissions {
		cmd = append(cmd, "--dangerously-skip-permissions")
	}
	return cmd
}

// Start wires transcript logging and launches the agent in the session.
// Call it exactly once per created session, before any message is sent.
func (l *Launcher) Start(sess Session) error {
	if sess.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(sess.LogPath), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		if err := l.Backend.PipePane(sess.Name, sess.LogPath); err != nil {
			return fmt.Errorf("enable transcript logging for %s: %w", sess.Name, err)
		}
	}

	if l.SkipPermissions {
		w := l.Warn
		if w == nil {
			w = os.Stderr
		}
		fmt.Fprintf(w, "warning: session %s runs %s with --dangerously-skip-permissions\n", sess.Name, claudeBinary)
	}

	if err := l.Backend.SendKeys(sess.Name, strings.Join(l.Command(), " ")); err != nil {
		return fmt.Errorf("launch agent in %s: %w", sess.Name, err)
	}
	return nil
}
