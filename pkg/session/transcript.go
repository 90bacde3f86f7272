package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"relay/pkg/tmux"
)

// followPoll is how often Follow checks the log file for new bytes.
const followPoll = 500 * time.Millisecond

// Transcripts reads session output, preferring the pipe-pane log file
// (full scrollback from the moment the session was launched) and falling
// back to a live pane capture when no log exists, such as for sessions
// created outside this tool.
type Transcripts struct {
	Backend  Backend
	Registry *Registry
}

// History returns the last n lines of the session's transcript.
func (t *Transcripts) History(name string, n int) (string, error) {
	data, err := os.ReadFile(t.Registry.LogPath(name))
	if err == nil {
		return tailLines(string(data), n), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read transcript for %s: %w", name, err)
	}

	out, err := t.Backend.CapturePane(name, n)
	if err != nil {
		return "", fmt.Errorf("capture history for %s: %w", name, err)
	}
	return out, nil
}

// Export writes the full transcript to path. With clean set, terminal
// escape sequences are stripped so the file is plain text.
func (t *Transcripts) Export(name, path string, clean bool) error {
	var content string
	data, err := os.ReadFile(t.Registry.LogPath(name))
	switch {
	case err == nil:
		content = string(data)
	case errors.Is(err, os.ErrNotExist):
		content, err = t.Backend.CapturePaneAll(name)
		if err != nil {
			return fmt.Errorf("capture transcript for %s: %w", name, err)
		}
	default:
		return fmt.Errorf("read transcript for %s: %w", name, err)
	}

	if clean {
		content = StripANSI(content)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Follow streams new transcript bytes to w until ctx is cancelled or the
// session dies. It starts from the current end of the log so the caller
// sees only fresh output.
func (t *Transcripts) Follow(ctx context.Context, name string, w io.Writer) error {
	path := t.Registry.LogPath(name)
	var offset int64
	if info, err := os.Stat(path); err == nil {
		offset = info.Size()
	}

	ticker := time.NewTicker(followPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			// Log not there yet; keep waiting as long as the session lives.
			exists, herr := t.Backend.HasSession(name)
			if herr != nil {
				return fmt.Errorf("follow %s: %w", name, herr)
			}
			if !exists {
				return fmt.Errorf("follow %s: %w", name, tmux.ErrSessionNotFound)
			}
			continue
		}
		if info.Size() < offset {
			// Truncated log, start over from the top.
			offset = 0
		}
		if info.Size() > offset {
			n, err := copyFrom(path, offset, w)
			if err != nil {
				return fmt.Errorf("follow %s: %w", name, err)
			}
			offset += n
		}
	}
}

// copyFrom streams the file's bytes from offset onward into w.
func copyFrom(path string, offset int64, w io.Writer) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return io.Copy(w, f)
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
