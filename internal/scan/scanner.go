// Package scan discovers candidate files under the project root using
// the configured include and exclude glob patterns.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/ufi/internal/config"
)

// Scanner walks a project tree and filters paths against doublestar
// glob patterns. Patterns match the slash-separated project-relative
// path.
type Scanner struct {
	root    string
	include []string
	exclude []string
}

// New creates a Scanner for the config's root and patterns.
func New(cfg *config.Config) *Scanner {
	return &Scanner{
		root:    cfg.Project.Root,
		include: cfg.Include,
		exclude: cfg.Exclude,
	}
}

// Files returns the absolute paths of all candidate files, sorted so
// runs process them in a stable order. Hidden directories are pruned
// during the walk; exclude patterns additionally prune whole subtrees
// they match.
func (s *Scanner) Files(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || s.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.Matches(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether a slash-separated project-relative file path
// is a candidate: matched by at least one include pattern and by no
// exclude pattern.
func (s *Scanner) Matches(rel string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// MatchesAbs is Matches for an absolute path; paths outside the root
// never match.
func (s *Scanner) MatchesAbs(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return s.Matches(filepath.ToSlash(rel))
}

// excludedDir reports whether an exclude pattern rules out the whole
// directory subtree, so the walk can prune it without statting every
// file inside.
func (s *Scanner) excludedDir(rel string) bool {
	for _, pattern := range s.exclude {
		// "**/node_modules/**" excludes everything under the directory
		// matched by its prefix.
		if trimmed, ok := strings.CutSuffix(pattern, "/**"); ok {
			if matched, _ := doublestar.Match(trimmed, rel); matched {
				return true
			}
		}
	}
	return false
}
