// Package session tracks hosted agent sessions. There is no session
// database: the terminal backend is the source of truth, and everything
// here is derived live from it. A session "exists" exactly when its
// backend session exists.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"relay/pkg/tmux"
)

// Backend is the slice of the terminal adapter the session layer uses.
// *tmux.Tmux implements it.
type Backend interface {
	HasSession(name string) (bool, error)
	ListSessions() ([]tmux.SessionInfo, error)
	NewSession(name, workDir string) error
	SendKeys(name, text string) error
	CapturePane(name string, lines int) (string, error)
	CapturePaneAll(name string) (string, error)
	PipePane(name, logPath string) error
	KillSession(name string) error
}

// Status is derived from live backend state plus in-flight wait tracking.
type Status string

const (
	// StatusRunning means the backend session exists and no dispatch is
	// currently waiting on it.
	StatusRunning Status = "running"
	// StatusAwaiting means a dispatch is waiting for the session's agent
	// to finish responding.
	StatusAwaiting Status = "awaiting-completion"
	// StatusCompleted means the most recent awaited dispatch saw the agent
	// finish. It is reported on dispatch results; a later lookup of a
	// still-live session derives StatusRunning again.
	StatusCompleted Status = "completed"
	// StatusDead means no backend session with this name exists.
	StatusDead Status = "dead"
)

// Session is a point-in-time view of one managed session.
type Session struct {
	Name      string    `json:"name" yaml:"name"`
	BackendID string    `json:"backend_id" yaml:"backend_id"`
	WorkDir   string    `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
	LogPath   string    `json:"log_path,omitempty" yaml:"log_path,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Status    Status    `json:"status" yaml:"status"`
}

// GenerateName returns a fresh session name with a short random suffix,
// for callers that want a new session without picking a name.
func GenerateName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + id[:8]
}
