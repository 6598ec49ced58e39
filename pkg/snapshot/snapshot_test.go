package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadKeyedRows(t *testing.T) {
	path := writeTempCSV(t, "partNumber,price,qty\nAP-1,10.00,5\nAP-2,20.00,3\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)

	assert.Equal(t, []string{"partNumber", "price", "qty"}, snap.Columns)
	assert.Len(t, snap.Rows, 2)
	assert.Equal(t, "10.00", snap.Rows["AP-1"]["price"])
	assert.Equal(t, "3", snap.Rows["AP-2"]["qty"])
}

func TestLoadFirstOccurrenceWinsOnDuplicateKey(t *testing.T) {
	path := writeTempCSV(t, "partNumber,price\nK1,1\nK1,2\nK2,9\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)

	assert.Len(t, snap.Rows, 2)
	assert.Equal(t, "1", snap.Rows["K1"]["price"])
}

func TestLoadDropsEmptyKeys(t *testing.T) {
	path := writeTempCSV(t, "partNumber,price\n,1\n   ,2\nK1,3\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)

	assert.Len(t, snap.Rows, 1)
	assert.Equal(t, "3", snap.Rows["K1"]["price"])
}

func TestLoadPadsShortRecords(t *testing.T) {
	path := writeTempCSV(t, "partNumber,price,qty\nK1,5\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)

	assert.Equal(t, "5", snap.Rows["K1"]["price"])
	assert.Equal(t, "", snap.Rows["K1"]["qty"])
}

func TestLoadKeyColumnMissing(t *testing.T) {
	path := writeTempCSV(t, "sku,price\nK1,5\n")

	_, err := Load(path, "partNumber")
	require.Error(t, err)

	var keyErr *KeyColumnError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "partNumber", keyErr.Column)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")

	_, err := Load(path, "partNumber")
	var keyErr *KeyColumnError
	require.ErrorAs(t, err, &keyErr)
}

func TestLoadStripsHeaderBOM(t *testing.T) {
	path := writeTempCSV(t, "\ufeffpartNumber,price\nK1,5\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)
	assert.Equal(t, "5", snap.Rows["K1"]["price"])
}

func TestLoadTrimsKeyWhitespace(t *testing.T) {
	path := writeTempCSV(t, "partNumber,price\n  K1  ,5\n")

	snap, err := Load(path, "partNumber")
	require.NoError(t, err)
	_, ok := snap.Rows["K1"]
	assert.True(t, ok)
}
