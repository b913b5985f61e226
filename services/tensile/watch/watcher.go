// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package watch analyzes tensile results files as a test rig writes
// them. It watches a directory for CSV files, waits for each file to
// settle, and runs the analysis service on it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/2022ugmm081/tensile-test-analyser/services/tensile"
	"github.com/2022ugmm081/tensile-test-analyser/services/tensile/ingest"
)

// Sentinel errors for the watch package.
var (
	// ErrNilService indicates the watcher was built without a service.
	ErrNilService = errors.New("nil analysis service")

	// ErrNotDirectory indicates the watch root is not a directory.
	ErrNotDirectory = errors.New("watch root is not a directory")
)

// Result is the outcome of analyzing one settled results file.
type Result struct {
	// Path is the path of the analyzed file.
	Path string

	// Analysis is the analysis outcome. Nil when Err is set.
	Analysis *tensile.AnalysisResult

	// Err is the ingestion or analysis failure, if any.
	Err error

	// Time is when the file's last change was observed.
	Time time.Time
}

// ResultHandler is called once per settled results file.
type ResultHandler func(Result)

// fileChange is one observed change to a results file.
type fileChange struct {
	path string
	time time.Time
}

// Watcher analyzes results files appearing in a directory.
//
// # Description
//
// Watches a directory tree for CSV files and batches change events
// using a debounce window, so a rig writing a file incrementally
// triggers a single analysis once the file settles.
//
// # Debouncing
//
// Changes are collected into a buffer. When the debounce period expires
// without new changes, each changed file is read, analyzed with the
// fixed specimen setup, and the outcome delivered to the handler.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root    string
	svc     *tensile.Service
	setup   tensile.TestSetup
	handler ResultHandler

	watcher  *fsnotify.Watcher
	debounce time.Duration

	changes  chan fileChange
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// Options configures the Watcher.
type Options struct {
	// DebounceWindow is how long a file must stay quiet before it is
	// analyzed.
	// Default: 500ms
	DebounceWindow time.Duration

	// BufferSize is the size of the change buffer channel.
	// Default: 256
	BufferSize int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 500 * time.Millisecond,
		BufferSize:     256,
	}
}

// New creates a watcher for the given results directory.
//
// # Inputs
//
//   - root: Path to the directory the rig writes results into.
//   - svc: Analysis service invoked per settled file.
//   - setup: Specimen setup applied to every file.
//   - handler: Function called with each file's outcome.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready-to-use watcher (call Start to begin watching).
//   - error: Non-nil if the root is unusable, the setup is invalid, or
//     the underlying watcher could not be created.
//
// # Example
//
//	w, err := watch.New(dir, svc, setup, func(res watch.Result) {
//	    if res.Err != nil {
//	        slog.Error("Analysis failed", "file", res.Path, "error", res.Err)
//	        return
//	    }
//	    fmt.Println(report.Render(res.Analysis.Properties))
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
func New(root string, svc *tensile.Service, setup tensile.TestSetup, handler ResultHandler, opts *Options) (*Watcher, error) {
	if svc == nil {
		return nil, ErrNilService
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	setup.EnsureDefaults()
	if err := setup.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", tensile.ErrInvalidSetup, err)
	}

	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:     root,
		svc:      svc,
		setup:    setup,
		handler:  handler,
		watcher:  watcher,
		debounce: opts.DebounceWindow,
		changes:  make(chan fileChange, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for results files.
//
// # Description
//
// Recursively watches the root directory and all subdirectories.
// Changes are debounced; each settled file is analyzed and its outcome
// delivered to the handler.
//
// # Inputs
//
//   - ctx: Context for cancellation. When canceled, watching stops.
//
// # Outputs
//
//   - error: Non-nil if watching could not be started.
//
// # Behavior
//
// Spawns two goroutines:
//   - Event processor: filters fsnotify events down to CSV changes
//   - Debouncer: batches changes and runs the analyses
//
// Both goroutines exit when Stop() is called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil // Already watching
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	slog.Info("Watching results directory",
		"dir", w.root,
		"diameter_mm", w.setup.DiameterMM,
		"gauge_length_mm", w.setup.GaugeLengthMM)

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds a directory and all subdirectories to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Ignore errors, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// isResultsFile reports whether the path looks like a results CSV.
func isResultsFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}

// processEvents filters fsnotify events down to results-file changes.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories join the watch.
			if event.Has(fsnotify.Create) {
				if isDir, err := isDirectory(event.Name); err == nil && isDir {
					if err := w.watcher.Add(event.Name); err != nil {
						slog.Warn("Failed to watch new directory",
							"dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isResultsFile(event.Name) {
				continue
			}

			select {
			case w.changes <- fileChange{path: event.Name, time: time.Now()}:
			default:
				// Buffer full; drop. The debouncer keeps up in practice.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// isDirectory returns true if path is a directory.
func isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// debounceLoop batches changes and analyzes settled files.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []fileChange
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			settled := deduplicate(batch)
			slog.Debug("Analyzing settled files", "count", len(settled))
			for _, change := range settled {
				w.analyzeFile(ctx, change)
			}
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)

			// Reset or start the debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			// Debounce window expired, flush the batch
			flush()
		}
	}
}

// deduplicate keeps the most recent change per path, preserving first-seen
// order.
func deduplicate(changes []fileChange) []fileChange {
	seen := make(map[string]int) // path -> index in result
	result := make([]fileChange, 0, len(changes))

	for _, change := range changes {
		if idx, exists := seen[change.path]; exists {
			result[idx] = change
		} else {
			seen[change.path] = len(result)
			result = append(result, change)
		}
	}

	return result
}

// analyzeFile ingests and analyzes one settled file, delivering the
// outcome to the handler.
func (w *Watcher) analyzeFile(ctx context.Context, change fileChange) {
	result := Result{Path: change.path, Time: change.time}

	f, err := os.Open(change.path)
	if err != nil {
		result.Err = fmt.Errorf("open results file: %w", err)
		w.deliver(result)
		return
	}
	ds, err := ingest.ReadCSV(f)
	f.Close()
	if err != nil {
		result.Err = err
		w.deliver(result)
		return
	}

	analysis, err := w.svc.Analyze(ctx, ds, w.setup)
	if err != nil {
		result.Err = err
		w.deliver(result)
		return
	}

	result.Analysis = analysis
	w.deliver(result)
}

// deliver logs the outcome and hands it to the handler, if set.
func (w *Watcher) deliver(result Result) {
	if result.Err != nil {
		slog.Warn("Results file analysis failed", "file", result.Path, "error", result.Err)
	} else {
		slog.Info("Results file analyzed",
			"file", result.Path,
			"samples", result.Analysis.SampleCount,
			"yield_index", result.Analysis.Properties.YieldIndex)
	}
	if w.handler != nil {
		w.handler(result)
	}
}
