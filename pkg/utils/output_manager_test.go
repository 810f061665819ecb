package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputManager_FilePath(t *testing.T) {
	base := t.TempDir()
	om := NewOutputManager(base)

	path, err := om.FilePath("run-1", "../forecast.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run-1", "forecast.csv"), path)

	info, err := os.Stat(filepath.Join(base, "run-1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOutputManager_Resolve(t *testing.T) {
	om := NewOutputManager("outputs")

	path, err := om.Resolve("run-1", "forecast.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("outputs", "run-1", "forecast.xlsx"), path)

	for _, bad := range [][2]string{{"..", "x"}, {"run-1", ".."}, {"a/b", "x"}, {"", "x"}, {"run-1", ""}} {
		_, err := om.Resolve(bad[0], bad[1])
		assert.Error(t, err, "%v", bad)
	}
}

func TestOutputManager_FileType(t *testing.T) {
	om := NewOutputManager("outputs")
	assert.Equal(t, "csv", om.FileType("a.CSV"))
	assert.Equal(t, "json", om.FileType("a.json"))
	assert.Equal(t, "xlsx", om.FileType("a.xlsx"))
	assert.Equal(t, "unknown", om.FileType("a.txt"))
	assert.Equal(t, "/api/v1/download/r/a.csv", om.DownloadURL("r", "dir/a.csv"))
}

func TestOutputManager_RemoveRun(t *testing.T) {
	base := t.TempDir()
	om := NewOutputManager(base)

	path, err := om.FilePath("run-1", "forecast.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("entity,year\n"), 0644))

	require.NoError(t, om.RemoveRun("run-1"))
	assert.NoDirExists(t, filepath.Join(base, "run-1"))
	assert.DirExists(t, base)

	assert.Error(t, om.RemoveRun(".."))
	assert.Error(t, om.RemoveRun(""))
	assert.Equal(t, "text/csv", om.ContentType("forecast.csv"))
	assert.Equal(t, "application/octet-stream", om.ContentType("forecast.bin"))
}
