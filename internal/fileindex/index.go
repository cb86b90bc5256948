// Package fileindex persists, across runs, which files have already
// been processed, keyed by project-relative path and last-modified
// timestamp. The snapshot is a flat text file rewritten wholesale on
// each run that changed anything: the expected fingerprint on the first
// line, then one "<relative-path> <timestamp>" entry per line.
package fileindex

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/standardbeagle/ufi/internal/diag"
	"github.com/standardbeagle/ufi/internal/fingerprint"
)

// separator splits the path portion of an entry line from the
// timestamp. Paths may legitimately contain it, timestamps never do,
// so parsing locates the LAST occurrence.
const separator = " "

// timeLayout is the serialized timestamp form. RFC3339 in UTC with
// fractional seconds preserved, so mtimes round-trip exactly.
const timeLayout = time.RFC3339Nano

// Index maps project-relative file paths to the last-modified time
// recorded when the file was last processed. One instance per run,
// single-threaded with respect to updates; callers coordinate their
// own workers.
type Index struct {
	snapshotPath string
	expected     fingerprint.Fingerprint
	projectRoot  string
	entries      map[string]time.Time
	dirty        bool
}

// Load reads the snapshot at snapshotPath. It never fails the caller:
// a missing file, a fingerprint mismatch, or any read or parse problem
// falls back to an empty index after reporting to the sink. The index
// is an optimization; the worst case of an empty fallback is redundant
// reprocessing, never incorrect output.
func Load(snapshotPath string, expected fingerprint.Fingerprint, projectRoot string, sink diag.Sink) *Index {
	ix := empty(snapshotPath, expected, projectRoot)

	f, err := os.Open(snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			diag.Infof(sink, "index file %s does not exist, starting empty", snapshotPath)
		} else {
			diag.Warnf(sink, err, "error reading index file %s, starting empty", snapshotPath)
		}
		return ix
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			diag.Warnf(sink, err, "error reading index file %s, starting empty", snapshotPath)
		} else {
			diag.Infof(sink, "index file %s is empty, starting empty", snapshotPath)
		}
		return ix
	}

	stored := fingerprint.From(scanner.Text())
	if !stored.Equal(expected) {
		diag.Infof(sink, "fingerprint mismatch in index file %s, starting empty", snapshotPath)
		return ix
	}

	entries, err := readEntries(scanner, projectRoot, sink)
	if err != nil {
		diag.Warnf(sink, err, "error reading index file %s, starting empty", snapshotPath)
		return ix
	}

	ix.entries = entries
	return ix
}

// LastModified returns the recorded timestamp for the given absolute
// path, or false when the path is outside the project root or has no
// entry. Pure query, no mutation.
func (ix *Index) LastModified(file string) (time.Time, bool) {
	rel, ok := ix.relativize(file)
	if !ok {
		return time.Time{}, false
	}
	t, ok := ix.entries[rel]
	return t, ok
}

// SetLastModified records the timestamp for the given absolute path and
// marks the index dirty, even when the value is unchanged: the contract
// is "this path was touched this run", not "the value changed". The
// path must be under the project root.
func (ix *Index) SetLastModified(file string, t time.Time) {
	rel, err := filepath.Rel(ix.projectRoot, file)
	if err != nil {
		rel = file
	}
	ix.entries[rel] = t
	ix.dirty = true
}

// Write persists the index. It is a no-op when no entry changed since
// Load, so repeated up-to-date runs never touch the snapshot file.
// Unlike read failures, write failures propagate: the run's bookkeeping
// is lost and masking a disk or permission problem would hide it from
// the user.
func (ix *Index) Write() error {
	if !ix.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(ix.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("unable to create parent directory for index file %s: %w", ix.snapshotPath, err)
	}

	f, err := os.Create(ix.snapshotPath)
	if err != nil {
		return fmt.Errorf("unable to create index file %s: %w", ix.snapshotPath, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, ix.expected.String())

	paths := make([]string, 0, len(ix.entries))
	for p := range ix.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(w, "%s%s%s\n", p, separator, ix.entries[p].UTC().Format(timeLayout))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("unable to write index file %s: %w", ix.snapshotPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to write index file %s: %w", ix.snapshotPath, err)
	}
	return nil
}

// Len returns the number of recorded entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Dirty reports whether any entry changed since Load.
func (ix *Index) Dirty() bool {
	return ix.dirty
}

// relativize converts an absolute path to the project-relative key
// used in the entries map. Paths outside the root are rejected, which
// also guards against filepath.Rel producing ".." escapes.
func (ix *Index) relativize(file string) (string, bool) {
	rel, err := filepath.Rel(ix.projectRoot, file)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// readEntries parses the entry lines following the fingerprint line.
// Entries whose file no longer exists under the root are pruned, which
// keeps the index self-healing without a separate GC pass. A malformed
// line fails the whole read; Load converts that into the empty-index
// fallback.
func readEntries(scanner *bufio.Scanner, projectRoot string, sink diag.Sink) (map[string]time.Time, error) {
	entries := make(map[string]time.Time)
	for scanner.Scan() {
		line := scanner.Text()
		sep := strings.LastIndex(line, separator)
		if sep == -1 {
			return nil, fmt.Errorf("corrupt index: no separator found in %q", line)
		}

		rel := line[:sep]
		if _, err := os.Stat(filepath.Join(projectRoot, rel)); err != nil {
			diag.Infof(sink, "file stored in the index does not exist: %s", rel)
			continue
		}

		t, err := time.Parse(timeLayout, line[sep+1:])
		if err != nil {
			return nil, fmt.Errorf("corrupt index: unable to parse last modified time from %q: %w", line, err)
		}
		entries[rel] = t
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func empty(snapshotPath string, expected fingerprint.Fingerprint, projectRoot string) *Index {
	return &Index{
		snapshotPath: snapshotPath,
		expected:     expected,
		projectRoot:  projectRoot,
		entries:      make(map[string]time.Time),
	}
}
