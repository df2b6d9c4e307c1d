package batch

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexbridge/internal/engine"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/storage"
	"github.com/valpere/lexbridge/internal/store"
)

// newTestEngine seeds an "en-ru" dictionary entry for "hello" directly on
// disk (writing through a throwaway repository instance pointed at the same
// data directory), then initializes the Engine that will read it back, since
// this package has no access to Engine's unexported repository fields.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dataDir := t.TempDir()
	fileStore := storage.New(dataDir)
	require.NoError(t, repository.NewDictionaryRepository(fileStore).Upsert(repository.DictionaryEntry{
		LanguagePair: "en-ru", SourceWord: "hello", TargetWord: "привет", Frequency: 100,
	}))

	e, err := engine.Initialize(dataDir, engine.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Dispose() })
	return e
}

func writeCSVFile(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, csv.NewWriter(f).WriteAll(rows))
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunTranslatesAllColumnsByDefault(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	writeCSVFile(t, in, [][]string{{"hello"}, {"hello"}})

	result, err := Run(context.Background(), e, Options{
		InputFile: in, OutputFile: out, SourceLanguage: "en", TargetLanguage: "ru",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CellsTotal)
	assert.Equal(t, 2, result.CellsTranslated)
	assert.Equal(t, 0, result.CellsFailed)

	rows := readCSVFile(t, out)
	assert.Equal(t, "привет", rows[0][0])
	assert.Equal(t, "привет", rows[1][0])
}

func TestRunRestrictsToSelectedColumns(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	writeCSVFile(t, in, [][]string{{"hello", "hello"}})

	_, err := Run(context.Background(), e, Options{
		InputFile: in, OutputFile: out, SourceLanguage: "en", TargetLanguage: "ru",
		Columns: []int{0},
	})
	require.NoError(t, err)

	rows := readCSVFile(t, out)
	assert.Equal(t, "привет", rows[0][0])
	assert.Equal(t, "hello", rows[0][1])
}

func TestRunRejectsSameInputAndOutputFile(t *testing.T) {
	e := newTestEngine(t)
	_, err := Run(context.Background(), e, Options{InputFile: "a.csv", OutputFile: "a.csv"})
	assert.Error(t, err)
}

func TestRunCheckspointsAndResumesWithoutRetranslating(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "checkpoints.db")
	db, err := store.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	writeCSVFile(t, in, [][]string{{"hello"}})

	first, err := Run(context.Background(), e, Options{
		InputFile: in, OutputFile: out, SourceLanguage: "en", TargetLanguage: "ru",
		CheckpointStore: db,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.CheckpointID)

	cp, err := db.GetCSVCheckpoint(context.Background(), first.CheckpointID)
	require.NoError(t, err)
	assert.Equal(t, "completed", cp.Status)

	second, err := Run(context.Background(), e, Options{
		InputFile: in, OutputFile: out, SourceLanguage: "en", TargetLanguage: "ru",
		CheckpointStore: db, ResumeCheckpointID: first.CheckpointID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.CellsTranslated)
}
