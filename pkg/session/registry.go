package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"relay/pkg/tmux"
)

// Registry resolves session names against live backend state. It holds no
// persistent state of its own; the only in-memory bookkeeping is the set
// of sessions a dispatch is currently waiting on, which feeds the
// awaiting-completion status.
type Registry struct {
	Backend Backend
	LogDir  string

	mu      sync.Mutex
	waiting map[string]struct{}
}

// NewRegistry builds a registry over a backend. Session transcripts are
// piped to per-session files under logDir.
func NewRegistry(backend Backend, logDir string) *Registry {
	return &Registry{
		Backend: backend,
		LogDir:  logDir,
		waiting: make(map[string]struct{}),
	}
}

// LogPath returns the transcript log file for a session.
func (r *Registry) LogPath(name string) string {
	return filepath.Join(r.LogDir, name+".log")
}

// ResolveOrCreate returns the session with the given name, creating its
// backend session first if none exists. created reports whether this call
// made the session; callers launch the agent only on freshly created ones.
// Two concurrent resolves of the same name converge on one backend
// session: the loser of the create race falls back to lookup.
func (r *Registry) ResolveOrCreate(name, workDir string) (Session, bool, error) {
	exists, err := r.Backend.HasSession(name)
	if err != nil {
		return Session{}, false, fmt.Errorf("resolve %s: %w", name, err)
	}
	if exists {
		sess, err := r.Lookup(name)
		return sess, false, err
	}

	if err := r.Backend.NewSession(name, workDir); err != nil {
		if errors.Is(err, tmux.ErrSessionExists) {
			// Lost the create race; the session is there now.
			sess, lerr := r.Lookup(name)
			return sess, false, lerr
		}
		return Session{}, false, fmt.Errorf("create %s: %w", name, err)
	}

	sess, err := r.Lookup(name)
	if err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

// Lookup returns the named session, or a wrapped tmux.ErrSessionNotFound.
func (r *Registry) Lookup(name string) (Session, error) {
	sessions, err := r.Backend.ListSessions()
	if err != nil {
		return Session{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	for _, s := range sessions {
		if s.Name == name {
			return r.view(s), nil
		}
	}
	return Session{}, fmt.Errorf("lookup %s: %w", name, tmux.ErrSessionNotFound)
}

// List returns all live sessions with derived status.
func (r *Registry) List() ([]Session, error) {
	infos, err := r.Backend.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]Session, 0, len(infos))
	for _, s := range infos {
		sessions = append(sessions, r.view(s))
	}
	return sessions, nil
}

// view builds the Session snapshot for one backend session. The working
// directory comes live from the backend, so it tracks where the session
// actually is rather than where it was created.
func (r *Registry) view(s tmux.SessionInfo) Session {
	return Session{
		Name:      s.Name,
		BackendID: s.Name,
		WorkDir:   s.Path,
		LogPath:   r.LogPath(s.Name),
		CreatedAt: s.Created,
		Status:    r.status(s.Name),
	}
}

// Status derives the named session's status from live backend state.
func (r *Registry) Status(name string) (Status, error) {
	exists, err := r.Backend.HasSession(name)
	if err != nil {
		return StatusDead, fmt.Errorf("status %s: %w", name, err)
	}
	if !exists {
		return StatusDead, nil
	}
	return r.status(name), nil
}

// status assumes the session exists and folds in wait tracking.
func (r *Registry) status(name string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.waiting[name]; ok {
		return StatusAwaiting
	}
	return StatusRunning
}

// BeginWait marks a session as awaiting completion. The returned func
// clears the mark and is safe to call exactly once, typically deferred.
func (r *Registry) BeginWait(name string) func() {
	r.mu.Lock()
	r.waiting[name] = struct{}{}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.waiting, name)
		r.mu.Unlock()
	}
}

// Kill terminates the named session. Killing a session that does not
// exist is not an error.
func (r *Registry) Kill(name string) error {
	if err := r.Backend.KillSession(name); err != nil {
		return fmt.Errorf("kill %s: %w", name, err)
	}
	r.mu.Lock()
	delete(r.waiting, name)
	r.mu.Unlock()
	return nil
}

// KillAll terminates every live session and returns the names of the
// sessions it killed, so callers can clean up per-session artifacts.
func (r *Registry) KillAll() ([]string, error) {
	sessions, err := r.Backend.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("kill all: %w", err)
	}
	var killed []string
	for _, s := range sessions {
		if err := r.Kill(s.Name); err != nil {
			return killed, err
		}
		killed = append(killed, s.Name)
	}
	return killed, nil
}
