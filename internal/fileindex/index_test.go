package fileindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ufi/internal/fingerprint"
)

// captureSink records diagnostics so tests can assert on what the
// index reported.
type captureSink struct {
	infos []string
	warns []string
}

func (s *captureSink) Info(msg string) { s.infos = append(s.infos, msg) }

func (s *captureSink) Warn(msg string, cause error) { s.warns = append(s.warns, msg) }

func writeProjectFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeSnapshot(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MissingSnapshotStartsEmpty(t *testing.T) {
	root := t.TempDir()
	sink := &captureSink{}

	ix := Load(filepath.Join(root, ".ufi", "index"), fingerprint.From("v1"), root, sink)

	assert.Equal(t, 0, ix.Len())
	assert.False(t, ix.Dirty())
	require.Len(t, sink.infos, 1)
	assert.Contains(t, sink.infos[0], "does not exist")
	assert.Empty(t, sink.warns)
}

func TestRoundTrip(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	fp := fingerprint.From("F")
	sink := &captureSink{}

	a := writeProjectFile(t, root, filepath.Join("a", "b.txt"), "a")
	c := writeProjectFile(t, root, "c.txt", "c")

	t1 := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2022, 1, 2, 3, 4, 5, 123456789, time.UTC)

	ix := Load(snapshot, fp, root, sink)
	ix.SetLastModified(a, t1)
	ix.SetLastModified(c, t2)
	require.NoError(t, ix.Write())

	reloaded := Load(snapshot, fp, root, sink)
	require.Equal(t, 2, reloaded.Len())

	got, ok := reloaded.LastModified(a)
	require.True(t, ok)
	assert.True(t, got.Equal(t1), "got %v, want %v", got, t1)

	got, ok = reloaded.LastModified(c)
	require.True(t, ok)
	assert.True(t, got.Equal(t2), "got %v, want %v", got, t2)
}

func TestLoad_FingerprintMismatchStartsEmpty(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	sink := &captureSink{}

	file := writeProjectFile(t, root, "c.txt", "c")
	ix := Load(snapshot, fingerprint.From("F"), root, sink)
	ix.SetLastModified(file, time.Now())
	require.NoError(t, ix.Write())

	reloaded := Load(snapshot, fingerprint.From("F'"), root, sink)

	assert.Equal(t, 0, reloaded.Len())
	_, ok := reloaded.LastModified(file)
	assert.False(t, ok)
	require.NotEmpty(t, sink.infos)
	assert.Contains(t, sink.infos[len(sink.infos)-1], "fingerprint mismatch")
}

func TestLoad_PrunesEntriesForMissingFiles(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	sink := &captureSink{}

	writeProjectFile(t, root, "kept.txt", "x")
	writeSnapshot(t, snapshot,
		"v1\n"+
			"kept.txt 2021-06-01T12:00:00Z\n"+
			"gone.txt 2021-06-01T12:00:00Z\n")

	ix := Load(snapshot, fingerprint.From("v1"), root, sink)

	assert.Equal(t, 1, ix.Len())
	_, ok := ix.LastModified(filepath.Join(root, "gone.txt"))
	assert.False(t, ok)
	_, ok = ix.LastModified(filepath.Join(root, "kept.txt"))
	assert.True(t, ok)

	require.NotEmpty(t, sink.infos)
	assert.Contains(t, sink.infos[0], "gone.txt")
	assert.Empty(t, sink.warns)
}

func TestWrite_NoopWhenClean(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	writeProjectFile(t, root, "c.txt", "c")
	writeSnapshot(t, snapshot, "v1\nc.txt 2021-06-01T12:00:00Z\n")
	before, err := os.ReadFile(snapshot)
	require.NoError(t, err)

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	require.NoError(t, ix.Write())

	after, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWrite_NoopWithoutPriorSnapshot(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	require.NoError(t, ix.Write())

	_, err := os.Stat(snapshot)
	assert.True(t, os.IsNotExist(err), "clean index must not create a snapshot")
}

func TestWrite_DirtyRewritesEntries(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	sink := &captureSink{}

	writeProjectFile(t, root, "c.txt", "c")
	added := writeProjectFile(t, root, "d.txt", "d")
	writeSnapshot(t, snapshot, "v1\nc.txt 2021-06-01T12:00:00Z\n")

	ix := Load(snapshot, fingerprint.From("v1"), root, sink)
	ix.SetLastModified(added, time.Date(2023, 2, 3, 4, 5, 6, 0, time.UTC))
	require.True(t, ix.Dirty())
	require.NoError(t, ix.Write())

	content, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t,
		"v1\n"+
			"c.txt 2021-06-01T12:00:00Z\n"+
			"d.txt 2023-02-03T04:05:06Z\n",
		string(content))
}

func TestWrite_FailurePropagates(t *testing.T) {
	root := t.TempDir()
	// A regular file where the snapshot's parent directory should be
	// makes MkdirAll fail.
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ufi"), []byte("in the way"), 0o644))
	snapshot := filepath.Join(root, ".ufi", "index")

	file := writeProjectFile(t, root, "c.txt", "c")
	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	ix.SetLastModified(file, time.Now())

	err := ix.Write()
	require.Error(t, err)
	assert.Contains(t, err.Error(), snapshot)
}

func TestRoundTrip_PathContainingSeparator(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	fp := fingerprint.From("v1")

	file := writeProjectFile(t, root, filepath.Join("my dir", "file name.txt"), "x")
	ts := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

	ix := Load(snapshot, fp, root, &captureSink{})
	ix.SetLastModified(file, ts)
	require.NoError(t, ix.Write())

	reloaded := Load(snapshot, fp, root, &captureSink{})
	got, ok := reloaded.LastModified(file)
	require.True(t, ok)
	assert.True(t, got.Equal(ts))
}

func TestLoad_LineWithoutSeparatorStartsEmpty(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	sink := &captureSink{}

	writeProjectFile(t, root, "c.txt", "c")
	writeSnapshot(t, snapshot, "v1\nno-separator-here\n")

	ix := Load(snapshot, fingerprint.From("v1"), root, sink)

	assert.Equal(t, 0, ix.Len())
	require.Len(t, sink.warns, 1)
	assert.Contains(t, sink.warns[0], "starting empty")
}

func TestLoad_UnparseableTimestampStartsEmpty(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	sink := &captureSink{}

	writeProjectFile(t, root, "c.txt", "c")
	writeSnapshot(t, snapshot, "v1\nc.txt not-a-timestamp\n")

	ix := Load(snapshot, fingerprint.From("v1"), root, sink)

	assert.Equal(t, 0, ix.Len())
	require.Len(t, sink.warns, 1)
}

func TestLastModified_OutsideProjectRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})

	_, ok := ix.LastModified(filepath.Join(outside, "c.txt"))
	assert.False(t, ok)
	_, ok = ix.LastModified(filepath.Dir(root))
	assert.False(t, ok)
}

func TestSetLastModified_SameValueStillDirty(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	file := writeProjectFile(t, root, "c.txt", "c")
	ts := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	writeSnapshot(t, snapshot, "v1\nc.txt 2021-06-01T12:00:00Z\n")

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	require.False(t, ix.Dirty())

	ix.SetLastModified(file, ts)
	assert.True(t, ix.Dirty(), "an update marks the index dirty even when the value is unchanged")
}

func TestWrite_SortedByPath(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")
	fp := fingerprint.From("v1")
	ts := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

	b := writeProjectFile(t, root, "b.txt", "b")
	a := writeProjectFile(t, root, "a.txt", "a")
	c := writeProjectFile(t, root, "c.txt", "c")

	ix := Load(snapshot, fp, root, &captureSink{})
	ix.SetLastModified(b, ts)
	ix.SetLastModified(c, ts)
	ix.SetLastModified(a, ts)
	require.NoError(t, ix.Write())

	content, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t,
		"v1\n"+
			"a.txt 2021-06-01T12:00:00Z\n"+
			"b.txt 2021-06-01T12:00:00Z\n"+
			"c.txt 2021-06-01T12:00:00Z\n",
		string(content))
}

func TestConcreteScenario(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	file := writeProjectFile(t, root, filepath.Join("src", "A.java"), "class A {}")
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	ix.SetLastModified(file, ts)
	require.NoError(t, ix.Write())

	v1 := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})
	got, ok := v1.LastModified(file)
	require.True(t, ok)
	assert.True(t, got.Equal(ts))

	v2 := Load(snapshot, fingerprint.From("v2"), root, &captureSink{})
	_, ok = v2.LastModified(file)
	assert.False(t, ok)
}

func TestLoad_TolerantOfMissingTrailingNewline(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, ".ufi", "index")

	writeProjectFile(t, root, "c.txt", "c")
	writeSnapshot(t, snapshot, "v1\nc.txt 2021-06-01T12:00:00Z")

	ix := Load(snapshot, fingerprint.From("v1"), root, &captureSink{})

	got, ok := ix.LastModified(filepath.Join(root, "c.txt"))
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)))
}
