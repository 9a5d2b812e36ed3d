package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sambeau/minipy/config"
)

// scriptWatcher re-runs a script whenever it changes on disk
type scriptWatcher struct {
	watcher  *fsnotify.Watcher
	path     string // absolute, cleaned script path
	debounce time.Duration
	run      func()
	stderr   io.Writer
}

func newScriptWatcher(path string, debounce time.Duration, run func(), stderr io.Writer) (*scriptWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file instead of
	// writing to it, which drops a watch on the file itself.
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &scriptWatcher{
		watcher:  fsWatcher,
		path:     filepath.Clean(abs),
		debounce: debounce,
		run:      run,
		stderr:   stderr,
	}, nil
}

// Loop runs the script once, then again after every change, until ctx is
// done. Runs happen on the calling goroutine, one at a time.
func (w *scriptWatcher) Loop(ctx context.Context) error {
	defer w.watcher.Close()

	w.logInfo("watching %s", w.path)
	w.run()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Wait for rapid changes to settle
			pending = time.After(w.debounce)

		case <-pending:
			pending = nil
			w.logInfo("changed: %s", w.path)
			w.run()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *scriptWatcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH] "+format+"\n", args...)
}

func (w *scriptWatcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}

// watchFile runs path now and after every change. Language errors are
// reported but do not end the watch.
func watchFile(ctx context.Context, path string, cfg *config.Config, stdout, stderr io.Writer) error {
	w, err := newScriptWatcher(path, cfg.Watch.Debounce, func() {
		if err := runFile(path, cfg, stdout, stderr); err != nil {
			if _, ok := err.(exitCode); !ok {
				fmt.Fprintf(stderr, "[WATCH ERROR] %v\n", err)
			}
		}
	}, stderr)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	return w.Loop(ctx)
}
