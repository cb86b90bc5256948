// Package watch keeps a formatting run loop alive: it monitors the
// project tree with fsnotify and hands debounced batches of changed
// candidate files to a callback.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/ufi/internal/config"
	"github.com/standardbeagle/ufi/internal/diag"
	"github.com/standardbeagle/ufi/internal/scan"
)

// Watcher monitors the project root for changes to candidate files.
type Watcher struct {
	fsw       *fsnotify.Watcher
	root      string
	scanner   *scan.Scanner
	sink      diag.Sink
	debouncer *debouncer
	onBatch   func(paths []string)
	wg        sync.WaitGroup
}

// New creates a Watcher. onBatch receives absolute paths of changed
// candidate files after the configured debounce period.
func New(cfg *config.Config, sink diag.Sink, onBatch func(paths []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		root:    cfg.Project.Root,
		scanner: scan.New(cfg),
		sink:    sink,
		onBatch: onBatch,
	}
	w.debouncer = newDebouncer(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, onBatch)
	return w, nil
}

// Start adds recursive watches and begins processing events until ctx
// is canceled. It returns after the event loop has fully stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(w.root); err != nil {
		w.fsw.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	w.wg.Wait()
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	defer w.debouncer.stop()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sink.Warn("file watcher error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need their own watches; fsnotify is not
	// recursive by itself.
	if event.Op.Has(fsnotify.Create) {
		if w.isWatchableDir(event.Name) {
			if err := w.addWatches(event.Name); err != nil {
				w.sink.Warn("failed to watch new directory "+event.Name, err)
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !w.scanner.MatchesAbs(event.Name) {
		return
	}
	diag.Infof(w.sink, "change detected: %s", event.Name)
	w.debouncer.add(event.Name)
}

func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) isWatchableDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
