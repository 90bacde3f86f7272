package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"relay/pkg/tmux"
)

// fakeBackend is an in-memory terminal backend. It records the order of
// mutating calls so tests can assert sequencing.
type fakeBackend struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	paths    map[string]string
	panes    map[string]string
	calls    []string
	sent     []string
	pipes    map[string]string
	newErr   error

	// hasOnce, when set, is returned by the next HasSession call and then
	// cleared. Models a session appearing between check and create.
	hasOnce *bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions: make(map[string]time.Time),
		paths:    make(map[string]string),
		panes:    make(map[string]string),
		pipes:    make(map[string]string),
	}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) HasSession(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasOnce != nil {
		ok := *f.hasOnce
		f.hasOnce = nil
		return ok, nil
	}
	_, ok := f.sessions[name]
	return ok, nil
}

func (f *fakeBackend) ListSessions() ([]tmux.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tmux.SessionInfo
	for name, created := range f.sessions {
		out = append(out, tmux.SessionInfo{Name: name, Created: created, Path: f.paths[name]})
	}
	return out, nil
}

func (f *fakeBackend) NewSession(name, workDir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("new-session")
	if f.newErr != nil {
		return f.newErr
	}
	if _, ok := f.sessions[name]; ok {
		return fmt.Errorf("new-session: %w", tmux.ErrSessionExists)
	}
	f.sessions[name] = time.Now()
	f.paths[name] = workDir
	return nil
}

func (f *fakeBackend) SendKeys(name, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send-keys")
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeBackend) CapturePane(name string, lines int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.panes[name]
	if !ok {
		return "", fmt.Errorf("capture-pane: %w", tmux.ErrSessionNotFound)
	}
	return out, nil
}

func (f *fakeBackend) CapturePaneAll(name string) (string, error) {
	return f.CapturePane(name, 0)
}

func (f *fakeBackend) PipePane(name, logPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pipe-pane")
	f.pipes[name] = logPath
	return nil
}

func (f *fakeBackend) KillSession(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("kill-session")
	delete(f.sessions, name)
	return nil
}

func TestResolveOrCreate(t *testing.T) {
	t.Run("creates when absent then resolves to the same backend session", func(t *testing.T) {
		backend := newFakeBackend()
		reg := NewRegistry(backend, t.TempDir())

		first, created, err := reg.ResolveOrCreate("work", "/tmp")
		if err != nil {
			t.Fatal(err)
		}
		if !created {
			t.Fatal("expected first resolve to create")
		}

		second, created, err := reg.ResolveOrCreate("work", "/tmp")
		if err != nil {
			t.Fatal(err)
		}
		if created {
			t.Fatal("second resolve must not create")
		}
		if first.BackendID != second.BackendID {
			t.Errorf("backend IDs diverged: %q vs %q", first.BackendID, second.BackendID)
		}
	})

	t.Run("lost create race falls back to lookup", func(t *testing.T) {
		// The session appears between the existence check and the create:
		// HasSession reports absent once, new-session collides, and the
		// resolve must converge on the winner's session.
		backend := newFakeBackend()
		backend.sessions["work"] = time.Now()
		absent := false
		backend.hasOnce = &absent
		backend.newErr = fmt.Errorf("new-session: %w", tmux.ErrSessionExists)
		reg := NewRegistry(backend, t.TempDir())

		sess, created, err := reg.ResolveOrCreate("work", "/tmp")
		if err != nil {
			t.Fatal(err)
		}
		if created {
			t.Error("race loser must report created=false")
		}
		if sess.Name != "work" {
			t.Errorf("resolved %q, want work", sess.Name)
		}
	})
}

func TestLookupReportsWorkDir(t *testing.T) {
	backend := newFakeBackend()
	backend.sessions["work"] = time.Now()
	backend.paths["work"] = "/srv/project"
	reg := NewRegistry(backend, t.TempDir())

	sess, err := reg.Lookup("work")
	if err != nil {
		t.Fatal(err)
	}
	if sess.WorkDir != "/srv/project" {
		t.Errorf("work dir = %q, want /srv/project", sess.WorkDir)
	}

	list, err := reg.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].WorkDir != "/srv/project" {
		t.Errorf("listed work dir = %+v, want /srv/project", list)
	}
}

func TestLookupMissing(t *testing.T) {
	reg := NewRegistry(newFakeBackend(), t.TempDir())
	_, err := reg.Lookup("ghost")
	if !errors.Is(err, tmux.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStatusDerivation(t *testing.T) {
	backend := newFakeBackend()
	backend.sessions["work"] = time.Now()
	reg := NewRegistry(backend, t.TempDir())

	if st, _ := reg.Status("work"); st != StatusRunning {
		t.Errorf("status = %v, want running", st)
	}

	done := reg.BeginWait("work")
	if st, _ := reg.Status("work"); st != StatusAwaiting {
		t.Errorf("status = %v, want awaiting-completion", st)
	}
	done()
	if st, _ := reg.Status("work"); st != StatusRunning {
		t.Errorf("status after wait = %v, want running", st)
	}

	if st, _ := reg.Status("ghost"); st != StatusDead {
		t.Errorf("status = %v, want dead", st)
	}
}

func TestKillIdempotent(t *testing.T) {
	backend := newFakeBackend()
	backend.sessions["work"] = time.Now()
	reg := NewRegistry(backend, t.TempDir())

	if err := reg.Kill("work"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Kill("work"); err != nil {
		t.Errorf("second kill errored: %v", err)
	}
}

func TestKillAll(t *testing.T) {
	backend := newFakeBackend()
	backend.sessions["a"] = time.Now()
	backend.sessions["b"] = time.Now()
	backend.sessions["c"] = time.Now()
	reg := NewRegistry(backend, t.TempDir())

	killed, err := reg.KillAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(killed) != 3 {
		t.Errorf("killed %v, want 3 sessions", killed)
	}
	for _, name := range killed {
		if name != "a" && name != "b" && name != "c" {
			t.Errorf("killed unknown session %q", name)
		}
	}
	if left, _ := reg.List(); len(left) != 0 {
		t.Errorf("%d sessions survived", len(left))
	}
}

func TestLauncherStart(t *testing.T) {
	t.Run("logging wired before the agent launches", func(t *testing.T) {
		backend := newFakeBackend()
		backend.sessions["work"] = time.Now()
		l := &Launcher{Backend: backend}

		logPath := filepath.Join(t.TempDir(), "logs", "work.log")
		err := l.Start(Session{Name: "work", LogPath: logPath})
		if err != nil {
			t.Fatal(err)
		}

		if want := []string{"pipe-pane", "send-keys"}; !equalCalls(backend.calls, want) {
			t.Errorf("calls = %v, want %v", backend.calls, want)
		}
		if backend.pipes["work"] != logPath {
			t.Errorf("piped to %q, want %q", backend.pipes["work"], logPath)
		}
		if got := backend.sent[0]; got != "claude" {
			t.Errorf("launch command = %q", got)
		}
	})

	t.Run("unsafe mode adds the flag and warns", func(t *testing.T) {
		backend := newFakeBackend()
		backend.sessions["work"] = time.Now()
		var warn bytes.Buffer
		l := &Launcher{Backend: backend, SkipPermissions: true, Warn: &warn}

		if err := l.Start(Session{Name: "work"}); err != nil {
			t.Fatal(err)
		}
		if got := backend.sent[0]; got != "claude --dangerously-skip-permissions" {
			t.Errorf("launch command = %q", got)
		}
		if !strings.Contains(warn.String(), "--dangerously-skip-permissions") {
			t.Errorf("no unsafe-mode warning, got %q", warn.String())
		}
	})

	t.Run("default mode omits the flag silently", func(t *testing.T) {
		backend := newFakeBackend()
		backend.sessions["work"] = time.Now()
		var warn bytes.Buffer
		l := &Launcher{Backend: backend, Warn: &warn}

		if err := l.Start(Session{Name: "work"}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(backend.sent[0], "dangerously") {
			t.Errorf("flag leaked into %q", backend.sent[0])
		}
		if warn.Len() != 0 {
			t.Errorf("unexpected warning %q", warn.String())
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("prefers the log file tail", func(t *testing.T) {
		backend := newFakeBackend()
		reg := NewRegistry(backend, t.TempDir())
		tr := &Transcripts{Backend: backend, Registry: reg}

		var lines []string
		for i := 1; i <= 10; i++ {
			lines = append(lines, fmt.Sprintf("line %d", i))
		}
		if err := os.WriteFile(reg.LogPath("work"), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := tr.History("work", 3)
		if err != nil {
			t.Fatal(err)
		}
		if got != "line 8\nline 9\nline 10" {
			t.Errorf("history = %q", got)
		}
	})

	t.Run("falls back to a pane capture", func(t *testing.T) {
		backend := newFakeBackend()
		backend.panes["work"] = "captured output"
		reg := NewRegistry(backend, t.TempDir())
		tr := &Transcripts{Backend: backend, Registry: reg}

		got, err := tr.History("work", 3)
		if err != nil {
			t.Fatal(err)
		}
		if got != "captured output" {
			t.Errorf("history = %q", got)
		}
	})
}

func TestExportClean(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, t.TempDir())
	tr := &Transcripts{Backend: backend, Registry: reg}

	raw := "\x1b[32mhello\x1b[0m world\r\n\x1b]0;title\x07next"
	if err := os.WriteFile(reg.LogPath("work"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "export.txt")
	if err := tr.Export("work", out, true); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world\nnext" {
		t.Errorf("export = %q", string(data))
	}
}

func TestStripANSI(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x1b[1;31mred\x1b[0m", "red"},
		{"a\r\nb", "a\nb"},
		{"\x1b]0;window title\x07body", "body"},
		{"\x1b[?25lhidden cursor", "hidden cursor"},
	}
	for _, tc := range cases {
		if got := StripANSI(tc.in); got != tc.want {
			t.Errorf("StripANSI(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGenerateName(t *testing.T) {
	a := GenerateName("claude")
	b := GenerateName("claude")
	if a == b {
		t.Errorf("generated names collided: %q", a)
	}
	if !strings.HasPrefix(a, "claude-") {
		t.Errorf("name = %q, want claude- prefix", a)
	}
	if err := tmux.ValidateSessionName(a); err != nil {
		t.Errorf("generated name invalid: %v", err)
	}
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
