package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type story struct {
	ID   int64  `parquet:"id"`
	Text string `parquet:"text"`
	Note string `parquet:"note"`
}

func writeParquet(t *testing.T, path string, rows []story) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[story](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestRead_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	content := "Once upon a time.\nThere was a café \xff.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	text, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestRead_EmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	text, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
	_, err = Read(dir)
	assert.Error(t, err)
}

func TestRead_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stories.parquet")
	writeParquet(t, path, []story{
		{ID: 1, Text: "Lily saw a ball.", Note: "a"},
		{ID: 2, Text: "She kicked it.", Note: "b"},
		{ID: 3, Text: "The end.", Note: "c"},
	})

	text, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Lily saw a ball.\nShe kicked it.\nThe end.", text)

	text, err = Read(path, WithColumn("note"), WithSeparator(" | "))
	require.NoError(t, err)
	assert.Equal(t, "a | b | c", text)

	_, err = Read(path, WithColumn("missing"))
	assert.ErrorContains(t, err, "no column")

	_, err = Read(path, WithColumn("id"))
	assert.ErrorContains(t, err, "not text")
}

func TestRead_ForceFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stories.data")
	writeParquet(t, path, []story{{ID: 1, Text: "hello"}})
	text, err := Read(path, WithParquet(true))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	txt := filepath.Join(dir, "looks.parquet")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0644))
	text, err = Read(txt, WithParquet(false))
	require.NoError(t, err)
	assert.Equal(t, "plain", text)
}
