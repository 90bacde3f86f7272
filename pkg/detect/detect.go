// Package detect decides when a hosted agent session has finished
// responding. Two signal sources race: a completion marker written by the
// agent's Stop hook (exact, but only present when the hook is configured)
// and output-stability sampling of the pane (always available, best
// effort). Whichever fires first wins; the loser is cancelled.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"relay/pkg/tmux"
)

// PaneSource is the slice of the backend adapter the detector needs.
// *tmux.Tmux implements it.
type PaneSource interface {
	CapturePane(name string, lines int) (string, error)
	CapturePaneAll(name string) (string, error)
}

// Outcome is the detection verdict.
type Outcome int

const (
	// Completed means one of the two signals fired before the deadline.
	Completed Outcome = iota
	// TimedOut means neither signal fired; Window still carries the last
	// observed output so the caller has partial information.
	TimedOut
	// Lost means the backend session disappeared mid-wait.
	Lost
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed-out"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// Signal identifies which source resolved a Completed outcome.
type Signal string

const (
	// SignalMarker means the hook-written marker file was observed.
	SignalMarker Signal = "marker"
	// SignalStability means pane output held stable for the full window.
	SignalStability Signal = "stability"
)

// Result is the detector's verdict plus the captured output window.
type Result struct {
	Outcome Outcome
	Signal  Signal // set when Outcome is Completed
	Window  string // most recent captured output
	Err     error  // set when Outcome is Lost
}

// Default tuning. The stability window count is the correctness knob; the
// content check only defers firing while a busy indicator is visible.
const (
	DefaultMarkerPoll      = 500 * time.Millisecond
	DefaultSampleInterval  = 2 * time.Second
	DefaultStabilityWindow = 3
	DefaultWindowLines     = 50
	DefaultMarkerGrace     = 500 * time.Millisecond
)

// Detector races the marker and stability signals for one session at a
// time. A zero field falls back to its default, so the zero-value knobs
// need no explicit configuration. Detectors are stateless between Wait
// calls; concurrent waits on different sessions do not interact.
type Detector struct {
	Panes     PaneSource
	MarkerDir string

	MarkerPoll      time.Duration
	SampleInterval  time.Duration
	StabilityWindow int
	WindowLines     int
	MarkerGrace     time.Duration
}

// MarkerPath returns the marker file the Stop hook writes for a session.
func MarkerPath(dir, session string) string {
	return filepath.Join(dir, session+".done")
}

// lastWindow is a shared slot holding the most recently captured output,
// so a timeout verdict can still report partial information.
type lastWindow struct {
	mu  sync.Mutex
	out string
}

func (l *lastWindow) set(out string) {
	l.mu.Lock()
	l.out = out
	l.mu.Unlock()
}

func (l *lastWindow) get() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

// Wait blocks until a completion signal fires, the timeout elapses, or the
// session vanishes. Both polling loops are cancelled before Wait returns;
// no loop outlives the call.
func (d *Detector) Wait(ctx context.Context, session string, timeout time.Duration) Result {
	// A marker left over from an earlier dispatch is not a completion of
	// this one. Consume it before arming the watchers.
	_ = os.Remove(MarkerPath(d.MarkerDir, session))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan Result, 2)
	last := &lastWindow{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.markerLoop(ctx, session, results)
	}()
	go func() {
		defer wg.Done()
		d.heuristicLoop(ctx, session, results, last)
	}()

	var res Result
	select {
	case res = <-results:
	case <-ctx.Done():
		res = Result{Outcome: TimedOut, Window: last.get()}
	}

	// First signal wins: cancel the loser and wait for both loops to stop.
	cancel()
	wg.Wait()

	return res
}

// markerLoop polls for the hook-written marker file. An fsnotify watch on
// the marker directory wakes the loop early when available; polling stays
// in place as the correctness mechanism, so a failed watch just means
// slightly slower detection.
func (d *Detector) markerLoop(ctx context.Context, session string, results chan<- Result) {
	interval := d.MarkerPoll
	if interval == 0 {
		interval = DefaultMarkerPoll
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wake := d.watchMarkerDir(ctx)

	for {
		if d.markerPresent(session) {
			results <- d.resolveMarker(ctx, session)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

// markerPresent reports whether the session's marker file exists.
func (d *Detector) markerPresent(session string) bool {
	_, err := os.Stat(MarkerPath(d.MarkerDir, session))
	return err == nil
}

// resolveMarker builds the Completed verdict for a marker observation:
// give the agent a moment to flush its final output, capture the full
// window, and consume the marker so a later dispatch does not see a stale
// completion.
func (d *Detector) resolveMarker(ctx context.Context, session string) Result {
	grace := d.MarkerGrace
	if grace == 0 {
		grace = DefaultMarkerGrace
	}
	select {
	case <-ctx.Done():
	case <-time.After(grace):
	}

	window, err := d.Panes.CapturePaneAll(session)
	_ = os.Remove(MarkerPath(d.MarkerDir, session))
	if err != nil {
		if isGone(err) {
			return Result{Outcome: Lost, Err: fmt.Errorf("session %s vanished after completion marker: %w", session, err)}
		}
		// The marker is authoritative even when the final capture fails.
		return Result{Outcome: Completed, Signal: SignalMarker}
	}
	return Result{Outcome: Completed, Signal: SignalMarker, Window: window}
}

// watchMarkerDir returns a channel that receives whenever the marker
// directory changes, or nil when no watch could be established. The
// watcher is closed when ctx is cancelled.
func (d *Detector) watchMarkerDir(ctx context.Context) <-chan struct{} {
	if _, err := os.Stat(d.MarkerDir); err != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := watcher.Add(d.MarkerDir); err != nil {
		_ = watcher.Close()
		return nil
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return wake
}

// heuristicLoop samples the pane tail and declares completion once output
// has been byte-identical for the full stability window and no busy
// indicator is visible in the stable content.
func (d *Detector) heuristicLoop(ctx context.Context, session string, results chan<- Result, last *lastWindow) {
	interval := d.SampleInterval
	if interval == 0 {
		interval = DefaultSampleInterval
	}
	window := d.StabilityWindow
	if window == 0 {
		window = DefaultStabilityWindow
	}
	lines := d.WindowLines
	if lines == 0 {
		lines = DefaultWindowLines
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev string
	stable := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		out, err := d.Panes.CapturePane(session, lines)
		if err != nil {
			if isGone(err) {
				results <- Result{Outcome: Lost, Err: fmt.Errorf("session %s vanished mid-wait: %w", session, err)}
				return
			}
			// Transient capture failure: keep sampling.
			continue
		}
		last.set(out)

		if out == prev {
			stable++
		} else {
			stable = 1
			prev = out
		}

		// Stability is the primary signal. The busy check never overrides a
		// stability read that was actually obtained; it only defers firing
		// while the agent visibly reports work in progress.
		if stable >= window && out != "" && !looksBusy(out) {
			results <- Result{Outcome: Completed, Signal: SignalStability, Window: out}
			return
		}
	}
}

// isGone reports whether an adapter error means the session no longer exists.
func isGone(err error) bool {
	return errors.Is(err, tmux.ErrSessionNotFound) || errors.Is(err, tmux.ErrNoServer)
}
