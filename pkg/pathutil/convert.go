// Package pathutil converts between absolute and relative paths.
//
// ufi uses absolute paths internally to avoid ambiguity; user-facing
// output uses project-relative paths for readability. This package is
// the conversion layer at the output boundary.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root
// directory. Falls back to the original path if conversion fails, the
// path is already relative, or the path lies outside the root.
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	// A ".." prefix means the file is outside the root; the absolute
	// path is clearer in that case.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}
	return relPath
}

// ToRelativeAll converts a slice of absolute paths without modifying
// the input.
func ToRelativeAll(paths []string, rootDir string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = ToRelative(p, rootDir)
	}
	return out
}
