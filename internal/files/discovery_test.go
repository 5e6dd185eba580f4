package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSourceEntries(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fo020124.zip"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fo010124.ZIP"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "fo030124"), 0755))
	// Neither a zip nor a directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fo040124.csv"), []byte("x"), 0644))
	// Wrong prefix.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cm010124.zip"), []byte("x"), 0644))

	entries, err := NewDiscovery(dir).FindSourceEntries("fo")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "fo010124.ZIP", entries[0].Name)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, "fo020124.zip", entries[1].Name)
	assert.Equal(t, "fo030124", entries[2].Name)
	assert.True(t, entries[2].IsDir)
	assert.Equal(t, filepath.Join(dir, "fo030124"), entries[2].Path)
}

func TestFindSourceEntries_MissingDirectory(t *testing.T) {
	_, err := NewDiscovery(filepath.Join(t.TempDir(), "absent")).FindSourceEntries("fo")
	assert.Error(t, err)
}

func TestFindDataFiles(t *testing.T) {
	base := t.TempDir()
	sub := filepath.Join(base, "fo010124")
	require.NoError(t, os.Mkdir(sub, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "op010124.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "op010124.CSV"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "readme.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "fo010124.csv"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(sub, "opdir"), 0755))

	// Relative to the discovery base.
	found, err := NewDiscovery(base).FindDataFiles("fo010124", "op", ".csv")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "op010124.CSV", found[0].Name)
	assert.Equal(t, "op010124.csv", found[1].Name)

	// Absolute directory bypasses the base.
	found, err = NewDiscovery(t.TempDir()).FindDataFiles(sub, "op", ".csv")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged.csv")

	_, ok := Stat(path)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	info, ok := Stat(path)
	require.True(t, ok)
	assert.Equal(t, "merged.csv", info.Name)
	assert.Equal(t, int64(4), info.Size)
	assert.False(t, info.IsDir)
}

func TestFileInfo_OlderThan(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	info := FileInfo{ModTime: now.Add(-25 * time.Hour)}

	assert.True(t, info.OlderThan(24*time.Hour, now))
	assert.False(t, info.OlderThan(48*time.Hour, now))
}
