// Package watch reloads command manifests when the commands directory changes.
//
// A reload re-runs discovery, and only when the desired-state fingerprint
// changed does it swap the live set and reconcile again. Reconciliation is
// serialized by the reconciler's own lock, so a reload never races the
// startup run.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/catalog"
	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/logging"
	"github.com/cristianoliveira/cmdsync/internal/ports"
	"github.com/cristianoliveira/cmdsync/internal/reconcile"
	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDebounce is used when Options.Debounce is not positive.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultRetry is used when Options.Retry is not positive.
	DefaultRetry = 5 * time.Second
)

// DiscoverFunc rebuilds the desired-state set.
type DiscoverFunc func(ctx context.Context) (*catalog.Set, []*catalog.LoadError)

// Applier reconciles a desired-state set against the registry.
type Applier interface {
	Apply(ctx context.Context, scope ports.Scope, defs []*command.Definition) (*reconcile.Report, error)
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Retry is the delay before a failed reconciliation is attempted again.
	Retry time.Duration
	Scope ports.Scope
	// OnReload is called after a changed set was stored and reconciled.
	OnReload func(set *catalog.Set, report *reconcile.Report)
}

// Watcher watches root and its category directories.
type Watcher struct {
	root     string
	live     *catalog.Live
	discover DiscoverFunc
	applier  Applier
	logger   logging.Logger
	opts     Options

	mu sync.Mutex
	// synced is the fingerprint of the last set reconciled without failures.
	synced string
}

// New creates a watcher. applier may be nil to only swap the live set.
func New(root string, live *catalog.Live, discover DiscoverFunc, applier Applier, logger logging.Logger, opts Options) *Watcher {
	if live == nil {
		panic("New: live dependency cannot be nil")
	}
	if discover == nil {
		panic("New: discover dependency cannot be nil")
	}
	if logger == nil {
		panic("New: logger dependency cannot be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Retry <= 0 {
		opts.Retry = DefaultRetry
	}
	w := &Watcher{root: root, live: live, discover: discover, applier: applier, logger: logger, opts: opts}
	if applier == nil {
		w.synced = live.Load().Fingerprint()
	}
	return w
}

// Run watches until ctx is done. The root directory is created if missing.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create commands dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw); err != nil {
		return err
	}
	w.logger.Info("watching commands", "dir", w.root, "debounce", w.opts.Debounce.String())

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && filepath.Dir(ev.Name) == filepath.Clean(w.root) {
					if err := fsw.Add(ev.Name); err != nil {
						w.logger.Warn("failed to watch category", "dir", ev.Name, "error", err.Error())
					}
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			w.logger.Debug("commands changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.opts.Debounce)
			}
			timerC = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err.Error())
		case <-timerC:
			timerC = nil
			if _, err := w.Reload(ctx); err != nil {
				w.logger.Error("reload failed", "error", err.Error())
			}
			if !w.Synced() {
				timer.Reset(w.opts.Retry)
				timerC = timer.C
			}
		}
	}
}

// addTree watches root and every directory directly under it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher) error {
	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read commands dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

// Synced reports whether the live set was reconciled without failures.
func (w *Watcher) Synced() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.synced != "" && w.synced == w.live.Load().Fingerprint()
}

// Reload re-discovers and, if the set differs from the last one reconciled
// cleanly, stores and reconciles it. It reports whether reconciliation ran.
// A set whose reconciliation failed, wholly or for some items, is retried on
// the next reload even when nothing changed on disk.
func (w *Watcher) Reload(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	set, loadErrs := w.discover(ctx)
	fp := set.Fingerprint()
	if fp == w.synced {
		w.logger.Debug("commands unchanged after reload", "rejected", len(loadErrs))
		return false, nil
	}
	w.live.Store(set)
	w.logger.Info("commands reloaded", "commands", set.Len(), "rejected", len(loadErrs))

	var report *reconcile.Report
	if w.applier != nil {
		var err error
		report, err = w.applier.Apply(ctx, w.opts.Scope, set.All())
		if err != nil {
			return true, err
		}
	}
	if report == nil || len(report.Failures) == 0 {
		w.synced = fp
	} else {
		w.logger.Warn("reload reconciled with failures", "failed", len(report.Failures))
	}
	if w.opts.OnReload != nil {
		w.opts.OnReload(set, report)
	}
	return true, nil
}
