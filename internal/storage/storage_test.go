package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "en-ru", "dictionary.jsonl")

	require.NoError(t, s.RewriteJSONL(path, []map[string]any{
		{"source_word": "hello", "target_word": "привет"},
	}))

	var lines []map[string]any
	for obj, err := range s.ReadJSONL(path) {
		require.NoError(t, err)
		lines = append(lines, obj)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0]["source_word"])

	// Rewrite replaces contents wholesale and leaves no .tmp behind.
	require.NoError(t, s.RewriteJSONL(path, []map[string]any{
		{"source_word": "world", "target_word": "мир"},
	}))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	lines = nil
	for obj, err := range s.ReadJSONL(path) {
		require.NoError(t, err)
		lines = append(lines, obj)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "world", lines[0]["source_word"])
}

func TestReadJSONLMissingFileIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	count := 0
	for _, err := range s.ReadJSONL(filepath.Join(s.Dir, "nope.jsonl")) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 0, count)
}

func TestReadJSONLSkipsBlankAndMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	content := "{\"a\":1}\n\n   \nnot json\n{\"a\":2}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := New(dir)
	var values []float64
	for obj, err := range s.ReadJSONL(path) {
		require.NoError(t, err)
		values = append(values, obj["a"].(float64))
	}
	assert.Equal(t, []float64{1, 2}, values)
}

func TestAppendJSONL(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := filepath.Join(dir, "user", "translation_history.jsonl")

	require.NoError(t, s.AppendJSONL(path, map[string]any{"id": "1"}))
	require.NoError(t, s.AppendJSONL(path, map[string]any{"id": "2"}))

	var ids []string
	for obj, err := range s.ReadJSONL(path) {
		require.NoError(t, err)
		ids = append(ids, obj["id"].(string))
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestWithFileLockMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "dictionary.jsonl")

	order := make(chan int, 2)
	done := make(chan struct{})

	go func() {
		_ = WithFileLock(target, func() error {
			order <- 1
			close(done)
			return nil
		})
	}()
	<-done

	require.NoError(t, WithFileLock(target, func() error {
		order <- 2
		return nil
	}))

	assert.Equal(t, 1, <-order)
	assert.Equal(t, 2, <-order)
}

func TestReadAllTextDetectsUTF16LEBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utf16.txt")

	// "hi" UTF-16LE with BOM.
	raw := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s := New(dir)
	text, err := s.ReadAllText(path)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestReadAllTextMissingFileIsEmpty(t *testing.T) {
	s := New(t.TempDir())
	text, err := s.ReadAllText(filepath.Join(s.Dir, "missing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
