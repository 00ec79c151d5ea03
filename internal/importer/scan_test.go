package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_FindsExports(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	for _, name := range []string{"schwab.csv", "degiro.TSV", "binance.xlsx", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(importDir, name), []byte("data"), 0o644))
	}

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "binance.xlsx", files[0].Name)
	assert.Equal(t, "degiro.TSV", files[1].Name)
	assert.Equal(t, "schwab.csv", files[2].Name)
	assert.Equal(t, int64(4), files[2].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	processedDir := filepath.Join(importDir, "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "new.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.csv", files[0].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "trades.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "trades.csv"))

	_, err := os.Stat(filepath.Join(importDir, "trades.csv"))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(dir, "import", "processed", "trades.csv"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestMarkProcessed_MissingFile(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "nope.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moving nope.csv")
}
