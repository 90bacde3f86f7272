package main

import (
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of marker-file churn into one refresh.
const debounceWindow = 250 * time.Millisecond

// fsChangeMsg is sent when the completion-marker directory changes.
type fsChangeMsg struct{}

// watchMarkerDir creates a file system watcher for the marker directory.
// Returns nil if the directory doesn't exist or watcher creation fails
// (dashboard will fall back to polling-only mode).
func watchMarkerDir(markerDir string) tea.Cmd {
	watcher := initWatcher(markerDir)
	if watcher == nil {
		return nil
	}
	return runWatcher(watcher)
}

// initWatcher creates and initializes a file system watcher for the given directory.
// Returns nil if initialization fails.
func initWatcher(markerDir string) *fsnotify.Watcher {
	if _, err := os.Stat(markerDir); err != nil {
		// Directory doesn't exist, fall back to polling
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return nil
	}

	if err := watcher.Add(markerDir); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: failed to watch %s: %v (falling back to polling)", markerDir, err)
		return nil
	}

	return watcher
}

// runWatcher returns a tea.Cmd that blocks until marker activity settles,
// then emits one fsChangeMsg. The watcher is closed before returning; the
// Update loop re-arms a fresh one.
func runWatcher(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		defer watcher.Close()

		debounce := time.NewTimer(time.Hour)
		if !debounce.Stop() {
			<-debounce.C
		}
		defer debounce.Stop()

		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(debounceWindow)

			case <-debounce.C:
				return fsChangeMsg{}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}
