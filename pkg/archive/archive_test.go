package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, members map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestUnzip(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"PartInventoryPrice_20260310.csv": "partNumber,price\nA,1\n",
		"readme.txt":                      "export notes",
	})
	destDir := filepath.Join(t.TempDir(), "unzipped")

	paths, err := Unzip(zipPath, destDir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	csvPath := FirstTabular(paths)
	require.NotEmpty(t, csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "partNumber,price\nA,1\n", string(data))
}

func TestUnzipNestedMember(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"data/export.csv": "partNumber\nA\n",
	})
	destDir := filepath.Join(t.TempDir(), "unzipped")

	paths, err := Unzip(zipPath, destDir)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.FileExists(t, filepath.Join(destDir, "data", "export.csv"))
}

func TestUnzipRejectsPathTraversal(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"../evil.csv": "owned",
	})
	destDir := filepath.Join(t.TempDir(), "unzipped")

	_, err := Unzip(zipPath, destDir)
	require.Error(t, err)
}

func TestFirstTabular(t *testing.T) {
	assert.Equal(t, "b.CSV", FirstTabular([]string{"a.txt", "b.CSV", "c.csv"}))
	assert.Equal(t, "", FirstTabular([]string{"a.txt", "b.zip"}))
	assert.Equal(t, "", FirstTabular(nil))
}
