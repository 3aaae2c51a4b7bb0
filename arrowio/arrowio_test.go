package arrowio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	fields := []Field{
		{Name: "variant", Type: String},
		{Name: "pos", Type: Int64},
		{Name: "frequency", Type: Float64},
	}
	path := filepath.Join(t.TempDir(), "table.arrow")

	// Chunk size smaller than the row count forces multiple record batches.
	w, err := NewWriter(path, fields, 4)
	require.NoError(t, err)

	var rows [][]interface{}
	for i := 0; i < 10; i++ {
		rows = append(rows, []interface{}{
			"rs" + string(rune('a'+i)),
			int64(1000 + i),
			float64(i) / 10,
		})
	}
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	require.NoError(t, w.Close())

	got, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteWrongArity(t *testing.T) {
	fields := []Field{{Name: "a", Type: Float64}, {Name: "b", Type: Float64}}
	path := filepath.Join(t.TempDir(), "bad.arrow")
	w, err := NewWriter(path, fields, 4)
	require.NoError(t, err)
	defer w.Close()

	err = w.Write([]interface{}{1.0})
	assert.Error(t, err)
}

func TestWriteWrongType(t *testing.T) {
	fields := []Field{{Name: "a", Type: Int64}}
	path := filepath.Join(t.TempDir(), "bad.arrow")
	w, err := NewWriter(path, fields, 4)
	require.NoError(t, err)
	defer w.Close()

	err = w.Write([]interface{}{"not an int"})
	assert.Error(t, err)
}

func TestCloseFlushesPartialChunk(t *testing.T) {
	fields := []Field{{Name: "n", Type: Int64}}
	path := filepath.Join(t.TempDir(), "partial.arrow")
	w, err := NewWriter(path, fields, 100)
	require.NoError(t, err)

	require.NoError(t, w.Write([]interface{}{int64(7)}))
	require.NoError(t, w.Close())

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0][0])
}
