package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkWorkDir(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.Mkdir(path, 0700))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestSweepStaleWorkDirs(t *testing.T) {
	root := t.TempDir()

	stale := mkWorkDir(t, root, WorkDirPrefix+"aaa", 48*time.Hour)
	stale2 := mkWorkDir(t, root, WorkDirPrefix+"bbb", 25*time.Hour)
	fresh := mkWorkDir(t, root, WorkDirPrefix+"ccc", time.Hour)
	other := mkWorkDir(t, root, "unrelated-dir", 48*time.Hour)

	// A stale plain file with the prefix is not a directory and stays.
	file := filepath.Join(root, WorkDirPrefix+"file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(file, old, old))

	removed := SweepStaleWorkDirs(root, DefaultMaxAge)
	assert.Equal(t, 2, removed)

	assert.NoDirExists(t, stale)
	assert.NoDirExists(t, stale2)
	assert.DirExists(t, fresh)
	assert.DirExists(t, other)
	assert.FileExists(t, file)
}

func TestSweepStaleWorkDirs_NonEmpty(t *testing.T) {
	root := t.TempDir()
	dir := mkWorkDir(t, root, WorkDirPrefix+"leftover", 48*time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attacked.hashes"), []byte("h\n"), 0600))
	// Writing the file refreshed the directory mtime.
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(dir, old, old))

	assert.Equal(t, 1, SweepStaleWorkDirs(root, DefaultMaxAge))
	assert.NoDirExists(t, dir)
}

func TestSweepStaleWorkDirs_MissingRoot(t *testing.T) {
	assert.Equal(t, 0, SweepStaleWorkDirs(filepath.Join(t.TempDir(), "nope"), DefaultMaxAge))
}

func TestSweepStaleWorkDirs_EmptyRoot(t *testing.T) {
	assert.Equal(t, 0, SweepStaleWorkDirs(t.TempDir(), DefaultMaxAge))
}
