// Package runner orchestrates one formatting run: load the index, scan
// candidates, format what changed, persist the index once at the end.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/ufi/internal/config"
	"github.com/standardbeagle/ufi/internal/diag"
	"github.com/standardbeagle/ufi/internal/fileindex"
	"github.com/standardbeagle/ufi/internal/fingerprint"
	"github.com/standardbeagle/ufi/internal/format"
	"github.com/standardbeagle/ufi/internal/scan"
	"github.com/standardbeagle/ufi/internal/version"
)

// Mode selects what a run does with out-of-date files.
type Mode int

const (
	// ModeFormat rewrites out-of-date files and persists the index.
	ModeFormat Mode = iota
	// ModeCheck only reports; it never writes files or the index.
	ModeCheck
)

// Result aggregates per-run counters.
type Result struct {
	Scanned   int
	Skipped   int
	Formatted int
	// OutOfDate lists project-relative paths a check run would have
	// reformatted.
	OutOfDate []string
}

// Runner holds the pieces shared across runs in watch mode.
type Runner struct {
	cfg   *config.Config
	sink  diag.Sink
	chain []format.Formatter
}

// New creates a Runner from the config.
func New(cfg *config.Config, sink diag.Sink) *Runner {
	return &Runner{
		cfg:   cfg,
		sink:  sink,
		chain: format.FromConfig(cfg),
	}
}

// Fingerprint returns the identity of the current configuration. Runs
// under a different fingerprint never reuse each other's index entries.
func (r *Runner) Fingerprint() fingerprint.Fingerprint {
	return fingerprint.Compute(version.Version, r.cfg.FingerprintSettings()...)
}

// Run performs one full pass over the project. Index read problems are
// reported and degrade to reformatting; index write failures and file
// I/O failures are returned.
func (r *Runner) Run(ctx context.Context, mode Mode) (*Result, error) {
	files, err := scan.New(r.cfg).Files(ctx)
	if err != nil {
		return nil, err
	}
	return r.process(ctx, mode, files)
}

// RunFiles performs a pass restricted to the given absolute paths,
// used by watch mode to avoid rescanning the whole tree.
func (r *Runner) RunFiles(ctx context.Context, mode Mode, files []string) (*Result, error) {
	return r.process(ctx, mode, files)
}

func (r *Runner) process(ctx context.Context, mode Mode, files []string) (*Result, error) {
	ix := fileindex.Load(r.cfg.IndexFile(), r.Fingerprint(), r.cfg.Project.Root, r.sink)

	res := &Result{Scanned: len(files)}

	// The index has no internal locking; all mutation funnels through
	// this mutex while the workers run.
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.processFile(file, mode, ix, res, &mu)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(res.OutOfDate)

	if mode == ModeFormat {
		if err := ix.Write(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// processFile decides skip-or-format for one file. A file is up to
// date when its current mtime equals the recorded one; equality (not
// ordering) is the test, so restored backups and clock skew both fall
// on the safe reprocess side.
func (r *Runner) processFile(file string, mode Mode, ix *fileindex.Index, res *Result, mu *sync.Mutex) error {
	st, err := os.Stat(file)
	if err != nil {
		// Vanished between discovery and processing (frequent in watch
		// mode); the index prunes the entry on the next load.
		if os.IsNotExist(err) {
			diag.Infof(r.sink, "skipping vanished file %s", file)
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	mu.Lock()
	recorded, ok := ix.LastModified(file)
	mu.Unlock()
	if ok && recorded.Equal(st.ModTime()) {
		mu.Lock()
		res.Skipped++
		mu.Unlock()
		return nil
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	out, changed := format.Apply(r.chain, src)

	if mode == ModeCheck {
		mu.Lock()
		if changed {
			res.OutOfDate = append(res.OutOfDate, file)
		} else {
			res.Skipped++
		}
		mu.Unlock()
		return nil
	}

	if changed {
		if err := os.WriteFile(file, out, st.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
		if st, err = os.Stat(file); err != nil {
			return fmt.Errorf("failed to stat %s: %w", file, err)
		}
		diag.Infof(r.sink, "formatted %s", file)
	}

	mu.Lock()
	if changed {
		res.Formatted++
	}
	// Record clean files too, so the next run skips them without
	// re-reading their contents.
	ix.SetLastModified(file, st.ModTime())
	mu.Unlock()
	return nil
}

func (r *Runner) workers() int {
	if r.cfg.Run.Workers > 0 {
		return r.cfg.Run.Workers
	}
	return runtime.NumCPU()
}
