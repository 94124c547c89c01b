package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/logger"
)

// watchDebounce coalesces bursts of file events into one merge.
var watchDebounce = 500 * time.Millisecond

// watchTargets names the files whose changes trigger a merge.
type watchTargets struct {
	jobsDir string
	files   map[string]bool
}

func newWatchTargets(cfg domain.Config, cfgPath string) watchTargets {
	t := watchTargets{
		jobsDir: absPath(filepath.Join(cfg.OutputDir, domain.JobsDir)),
		files:   make(map[string]bool),
	}
	for _, f := range []string{cfg.RulesFile, cfgPath} {
		if f != "" {
			t.files[absPath(f)] = true
		}
	}
	return t
}

// dirs returns the directories to watch. Files are watched through their
// directory so that editors replacing a file are still seen.
func (t watchTargets) dirs() []string {
	seen := map[string]bool{t.jobsDir: true}
	dirs := []string{t.jobsDir}
	for f := range t.files {
		if d := filepath.Dir(f); !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// relevant reports whether ev should trigger a merge.
func (t watchTargets) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}

	name := absPath(ev.Name)
	if t.files[name] {
		return true
	}

	// Temp files from atomic writes are hidden.
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return filepath.Dir(name) == t.jobsDir && strings.HasSuffix(base, ".jsonl")
}

// watch calls onChange after relevant events settle, until ctx ends.
func watch(ctx context.Context, t watchTargets, debounce time.Duration, onChange func()) error {
	if err := os.MkdirAll(t.jobsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", t.jobsDir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range t.dirs() {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if t.relevant(ev) {
				logger.Debug("change detected: %s", ev)
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		case <-timer.C:
			onChange()
		}
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
