package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, DefaultConfigName))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.True(t, cfg.Format.TrimTrailingWhitespace)
	assert.True(t, cfg.Format.EnsureFinalNewline)
	assert.NotEmpty(t, cfg.Include)
	assert.Equal(t, filepath.Join(dir, DefaultIndexFile), cfg.IndexFile())
}

func TestLoad_OverlaysFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte(`
version = 1

include = ["**/*.go"]

[project]
root = "sub"
name = "demo"

[format]
trim_trailing_whitespace = false
line_endings = "lf"

[run]
workers = 2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sub"), cfg.Project.Root)
	assert.Equal(t, "demo", cfg.Project.Name)
	assert.False(t, cfg.Format.TrimTrailingWhitespace)
	assert.True(t, cfg.Format.EnsureFinalNewline, "unset values keep defaults")
	assert.Equal(t, "lf", cfg.Format.LineEndings)
	assert.Equal(t, 2, cfg.Run.Workers)
	assert.Equal(t, []string{"**/*.go"}, cfg.Include)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte(`
[format]
line_endings = "cr"
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line_endings")
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFingerprintSettings_CoversFormatOptions(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.FingerprintSettings(), b.FingerprintSettings())

	b.Format.EnsureFinalNewline = false
	assert.NotEqual(t, a.FingerprintSettings(), b.FingerprintSettings())

	c := Default()
	c.Include = append(c.Include, "**/*.rs")
	assert.NotEqual(t, a.FingerprintSettings(), c.FingerprintSettings())
}

func TestRender_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Project.Name = "demo"
	cfg.Run.Workers = 3

	content, err := Render(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Project.Name)
	assert.Equal(t, 3, loaded.Run.Workers)
	assert.Equal(t, cfg.Include, loaded.Include)
}
