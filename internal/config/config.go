package config

import (
	"fmt"
	"path/filepath"
	"sort"
)

// DefaultConfigName is the config file looked up at the project root.
const DefaultConfigName = ".ufi.toml"

// DefaultIndexFile is the snapshot location relative to the project
// root when the config does not override it.
const DefaultIndexFile = ".ufi/index"

type Config struct {
	Version int     `toml:"version"`
	Project Project `toml:"project"`
	Index   Index   `toml:"index"`
	Format  Format  `toml:"format"`
	Run     Run     `toml:"run"`
	Watch   Watch   `toml:"watch"`

	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Index struct {
	// File is the snapshot path; relative values resolve against the
	// project root.
	File string `toml:"file"`
}

type Format struct {
	TrimTrailingWhitespace bool   `toml:"trim_trailing_whitespace"`
	EnsureFinalNewline     bool   `toml:"ensure_final_newline"`
	LineEndings            string `toml:"line_endings"` // "", "lf", "crlf"
}

type Run struct {
	// Workers bounds the formatting worker pool; 0 means NumCPU.
	Workers int `toml:"workers"`
}

type Watch struct {
	DebounceMs int `toml:"debounce_ms"`
}

// Default returns the baseline configuration before any file or flag
// overrides. Root is resolved to an absolute path by Load.
func Default() *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: "."},
		Index:   Index{File: DefaultIndexFile},
		Format: Format{
			TrimTrailingWhitespace: true,
			EnsureFinalNewline:     true,
			LineEndings:            "",
		},
		Run:   Run{Workers: 0},
		Watch: Watch{DebounceMs: 200},
		Include: []string{
			"**/*.go", "**/*.js", "**/*.jsx", "**/*.ts", "**/*.tsx",
			"**/*.py", "**/*.java", "**/*.md", "**/*.json", "**/*.yaml", "**/*.yml",
		},
		Exclude: []string{
			"**/.*/**",
			"**/node_modules/**",
			"**/vendor/**",
		},
	}
}

// IndexFile returns the absolute snapshot path.
func (c *Config) IndexFile() string {
	if filepath.IsAbs(c.Index.File) {
		return c.Index.File
	}
	return filepath.Join(c.Project.Root, c.Index.File)
}

// FingerprintSettings renders every format-relevant setting as a
// "key=value" element. The fingerprint combines them order-insensitively,
// but the list is sorted anyway so config dumps stay stable.
func (c *Config) FingerprintSettings() []string {
	settings := []string{
		fmt.Sprintf("format.trim_trailing_whitespace=%t", c.Format.TrimTrailingWhitespace),
		fmt.Sprintf("format.ensure_final_newline=%t", c.Format.EnsureFinalNewline),
		fmt.Sprintf("format.line_endings=%s", c.Format.LineEndings),
	}
	for _, p := range c.Include {
		settings = append(settings, "include="+p)
	}
	for _, p := range c.Exclude {
		settings = append(settings, "exclude="+p)
	}
	sort.Strings(settings)
	return settings
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Format.LineEndings {
	case "", "lf", "crlf":
	default:
		return fmt.Errorf("format.line_endings must be \"lf\" or \"crlf\", got %q", c.Format.LineEndings)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be >= 0, got %d", c.Run.Workers)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("no include patterns specified, no files would be formatted")
	}
	return nil
}
