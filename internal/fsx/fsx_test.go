package fsx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDOSDateTime(t *testing.T) {
	// 2023-11-05 14:30:42 (seconds truncated to even per DOS resolution).
	date := uint16((2023-1980)<<9 | 11<<5 | 5)
	tm := uint16(14<<11 | 30<<5 | 21)

	ts := FromDOSDateTime(date, tm)
	got := ts.Time()

	assert.Equal(t, 2023, got.Year())
	assert.Equal(t, time.November, got.Month())
	assert.Equal(t, 5, got.Day())
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 42, got.Second())
}

func TestFromDOSDateTimeZero(t *testing.T) {
	assert.True(t, FromDOSDateTime(0, 0).IsZero())
}

func TestFromFileTime(t *testing.T) {
	// 1970-01-01T00:00:00Z in FILETIME units.
	ts := FromFileTime(winFileTimeEpochOffset)
	assert.Equal(t, int64(0), ts.Sec)
	assert.Equal(t, int64(0), ts.Nsec)
}

func TestMkdirAllCallback(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c")

	var created []string
	require.NoError(t, MkdirAll(target, 0o755, func(path string) {
		created = append(created, path)
	}))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "a", "b", "c"),
	}, created)

	// Re-running against an already-materialized tree is a no-op.
	created = nil
	require.NoError(t, MkdirAll(target, 0o755, func(path string) {
		created = append(created, path)
	}))
	assert.Empty(t, created)
}

func TestMkdirAllDirIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := MkdirAll(filepath.Join(file, "child"), 0o755, nil)
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, Restore(file, 0o644, FromTime(mtime)))

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	assert.WithinDuration(t, mtime, info.ModTime(), time.Second)
}
