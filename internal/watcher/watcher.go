// Package watcher turns filesystem activity under the Applications roots
// into serialized reconciliations. Bursts of events coalesce into one run;
// events racing a running reconciliation mark it dirty and schedule exactly
// one follow-up.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
)

const (
	// defaultWindow is how long after the first event the scheduler keeps
	// absorbing more before reconciling.
	defaultWindow = 500 * time.Millisecond
	// defaultMaxWindow caps the window: no stream of events may push the
	// reconciliation further than this from the first event.
	defaultMaxWindow = 2 * time.Second
)

// SyncFunc runs one reconciliation.
type SyncFunc func(ctx context.Context) error

// Watcher owns the event-consumer and scheduler loop.
type Watcher struct {
	sync      SyncFunc
	roots     func() ([]string, error)
	window    time.Duration
	maxWindow time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithWindow overrides the coalescing window (tests).
func WithWindow(window, max time.Duration) Option {
	return func(w *Watcher) {
		w.window = window
		w.maxWindow = max
	}
}

// New wires a watcher over a root source and a sync function.
func New(sync SyncFunc, roots func() ([]string, error), opts ...Option) *Watcher {
	w := &Watcher{
		sync:      sync,
		roots:     roots,
		window:    defaultWindow,
		maxWindow: defaultMaxWindow,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs one startup reconciliation and, unless once is set, blocks
// watching the roots until ctx is cancelled. A reconciliation in flight when
// ctx is cancelled finishes; Run then returns nil.
func (w *Watcher) Run(ctx context.Context, once bool) error {
	if err := w.sync(ctx); err != nil {
		if once {
			return err
		}
		slog.Error("startup sync failed", "error", err)
	}
	if once {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.NewWatchSetupError("", err)
	}
	defer fsw.Close()

	w.addRoots(fsw)

	// One slot plus implicit dirty flag: an event arriving while the slot is
	// full is already represented by the pending trigger.
	trigger := make(chan struct{}, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consume(ctx, fsw, trigger)
	})
	g.Go(func() error {
		return w.schedule(ctx, fsw, trigger)
	})

	return g.Wait()
}

// consume forwards filesystem events into the bounded trigger slot.
func (w *Watcher) consume(ctx context.Context, fsw *fsnotify.Watcher, trigger chan<- struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			select {
			case trigger <- struct{}{}:
			default: // a run is already pending; nothing to add
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// schedule serializes reconciliations: block for a trigger, coalesce the
// burst, run exactly one sync, then re-register roots so new bundles and new
// user directories are covered.
func (w *Watcher) schedule(ctx context.Context, fsw *fsnotify.Watcher, trigger <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}

		if !w.coalesce(ctx, trigger) {
			return nil
		}

		if err := w.sync(ctx); err != nil {
			slog.Error("sync failed", "error", err)
		}
		w.addRoots(fsw)
	}
}

// coalesce absorbs follow-up events: each one restarts the window, but the
// hard deadline from the first event always wins. Returns false when ctx was
// cancelled.
func (w *Watcher) coalesce(ctx context.Context, trigger <-chan struct{}) bool {
	window := time.NewTimer(w.window)
	defer window.Stop()
	deadline := time.NewTimer(w.maxWindow)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-trigger:
			if !window.Stop() {
				select {
				case <-window.C:
				default:
				}
			}
			window.Reset(w.window)
		case <-window.C:
			return true
		case <-deadline.C:
			return true
		}
	}
}

// addRoots registers watches on every root, every directory below it, and
// logs roots that cannot be watched. Re-adding an existing watch is a no-op,
// so this is safe to call after every reconciliation.
func (w *Watcher) addRoots(fsw *fsnotify.Watcher) {
	roots, err := w.roots()
	if err != nil {
		slog.Warn("could not resolve watch roots", "error", err)
		return
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := fsw.Add(root); err != nil {
			slog.Warn("could not watch directory", "path", root, "error", err)
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || path == root {
				return nil
			}
			if err := fsw.Add(path); err != nil {
				slog.Debug("could not watch subdirectory", "path", path, "error", err)
			}
			return nil
		})
	}
}
