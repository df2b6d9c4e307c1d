// Package batch drives a CSV translation job cell-by-cell through an Engine,
// checkpointing progress via internal/store so an interrupted run can resume
// without re-translating already-done cells (SPEC_FULL.md §4).
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/valpere/lexbridge/internal/engine"
	"github.com/valpere/lexbridge/internal/store"
)

// Options configures one CSV translation run.
type Options struct {
	InputFile      string
	OutputFile     string
	SourceLanguage string
	TargetLanguage string

	// Columns restricts translation to these 0-indexed columns; an empty
	// slice means every column.
	Columns []int

	// CheckpointStore, when non-nil, records per-cell progress so a crash
	// can later resume via ResumeCheckpointID instead of re-translating
	// already-finished cells. Engine.Translate's own memory-cache fast path
	// (when enabled) already dedupes repeated identical cells across runs;
	// the checkpoint exists for resuming a run that never finished, which a
	// cache hit alone cannot do since a half-written output file has no
	// record of which cells it still owes.
	CheckpointStore    *store.Store
	ResumeCheckpointID string
}

// Result summarizes a completed run.
type Result struct {
	CheckpointID    string
	CellsTotal      int
	CellsTranslated int
	CellsFailed     int
}

// Run translates the selected columns of Options.InputFile cell-by-cell
// through eng and writes the result to Options.OutputFile.
func Run(ctx context.Context, eng *engine.Engine, opts Options) (Result, error) {
	if opts.InputFile == opts.OutputFile {
		return Result{}, fmt.Errorf("input file and output file cannot be the same")
	}

	records, err := readCSV(opts.InputFile)
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("CSV file is empty")
	}

	checkpointID, completedCells, err := resolveCheckpoint(ctx, opts)
	if err != nil {
		return Result{}, err
	}

	colSet := make(map[int]bool, len(opts.Columns))
	for _, c := range opts.Columns {
		colSet[c] = true
	}
	translateAll := len(opts.Columns) == 0

	result := Result{CheckpointID: checkpointID}
	out := make([][]string, len(records))
	for rowIdx, row := range records {
		out[rowIdx] = make([]string, len(row))
		copy(out[rowIdx], row)

		for colIdx, cell := range row {
			if (!translateAll && !colSet[colIdx]) || cell == "" {
				continue
			}
			result.CellsTotal++

			cellKey := fmt.Sprintf("%d:%d", rowIdx, colIdx)
			if translated, done := completedCells[cellKey]; done {
				out[rowIdx][colIdx] = translated
				result.CellsTranslated++
				continue
			}

			tr, translateErr := eng.Translate(ctx, cell, opts.SourceLanguage, opts.TargetLanguage, nil)
			if translateErr != nil || tr.HasError {
				result.CellsFailed++
				continue
			}

			out[rowIdx][colIdx] = tr.TranslatedText
			result.CellsTranslated++

			if opts.CheckpointStore != nil && checkpointID != "" {
				_ = opts.CheckpointStore.SaveCSVCell(ctx, checkpointID, rowIdx, colIdx, tr.TranslatedText)
			}
		}
	}

	if err := writeCSV(opts.OutputFile, out); err != nil {
		return result, err
	}

	if opts.CheckpointStore != nil && checkpointID != "" {
		_ = opts.CheckpointStore.CompleteCSVCheckpoint(ctx, checkpointID)
	}

	return result, nil
}

func resolveCheckpoint(ctx context.Context, opts Options) (string, map[string]string, error) {
	if opts.CheckpointStore == nil {
		return "", nil, nil
	}
	if opts.ResumeCheckpointID != "" {
		if _, err := opts.CheckpointStore.GetCSVCheckpoint(ctx, opts.ResumeCheckpointID); err != nil {
			return "", nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		cells, err := opts.CheckpointStore.GetCSVCells(ctx, opts.ResumeCheckpointID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load checkpoint cells: %w", err)
		}
		return opts.ResumeCheckpointID, cells, nil
	}

	id, err := opts.CheckpointStore.CreateCSVCheckpoint(ctx, opts.InputFile, opts.OutputFile, opts.SourceLanguage, opts.TargetLanguage)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return id, nil, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input CSV: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write output CSV: %w", err)
	}
	w.Flush()
	return w.Error()
}
