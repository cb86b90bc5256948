package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Load reads configuration from the TOML file at path, overlaying it on
// the defaults. A missing file is not an error: the defaults apply and
// the project root falls back to the directory containing path. Root is
// always resolved to an absolute, cleaned path so every later
// relativization is consistent.
func Load(path string) (*Config, error) {
	cfg := Default()
	baseDir := filepath.Dir(path)

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No config file, defaults apply.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := resolveRoot(cfg, baseDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveRoot makes Project.Root absolute. Relative roots resolve
// against the directory containing the config file, matching what a
// user editing that file expects.
func resolveRoot(cfg *Config, baseDir string) error {
	root := cfg.Project.Root
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root %q: %w", cfg.Project.Root, err)
	}
	cfg.Project.Root = filepath.Clean(abs)
	return nil
}

// Render marshals the config back to TOML, for `ufi config show` and
// `ufi config init`.
func Render(cfg *Config) (string, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}
