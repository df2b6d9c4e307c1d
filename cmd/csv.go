/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/lexbridge/internal/batch"
	"github.com/valpere/lexbridge/internal/engine"
	"github.com/valpere/lexbridge/internal/store"
)

var (
	csvInputFile  string
	csvOutputFile string
	csvSourceLang string
	csvTargetLang string
	csvColumns    []int

	csvDBPath  string
	csvNoCache bool
	csvResume  string
)

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Translate columns of a CSV file",
	Long: `Translate one or more columns in a CSV file, cell by cell, through
the offline pipeline.

By default all columns are translated. Use -l to select specific columns
(0-indexed); the flag may be repeated to select multiple columns.

A checkpoint ID is printed at the start of each run. If the job is
interrupted, use --resume with that ID to skip already-translated cells.

Example:
  lexbridge csv -i data.csv -o out.csv -s en -t uk -l 1 -l 3
  lexbridge csv -i data.csv -o out.csv -s en -t uk --resume cp_123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Dispose()

		ctx := context.Background()

		var checkpointStore *store.Store
		if !csvNoCache && csvDBPath != "" {
			if err := os.MkdirAll(filepath.Dir(csvDBPath), 0755); err != nil {
				return fmt.Errorf("failed to create checkpoint directory: %w", err)
			}
			checkpointStore, err = store.New(csvDBPath)
			if err != nil {
				return fmt.Errorf("failed to open checkpoint database: %w", err)
			}
			defer checkpointStore.Close()
		}
		if csvResume != "" && checkpointStore == nil {
			return engine.UsageError(fmt.Errorf("--resume requires --db to be set and --no-cache to be disabled"))
		}

		if _, statErr := os.Stat(csvInputFile); statErr != nil {
			return engine.NoInputError(fmt.Errorf("failed to read input CSV: %w", statErr))
		}

		resumeID := csvResume
		if checkpointStore != nil && resumeID == "" {
			resumeID, err = checkpointStore.CreateCSVCheckpoint(ctx, csvInputFile, csvOutputFile, csvSourceLang, csvTargetLang)
			if err != nil {
				return fmt.Errorf("failed to create checkpoint: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Checkpoint ID: %s (use --resume %s to resume if interrupted)\n", resumeID, resumeID)
		}

		result, err := batch.Run(ctx, eng, batch.Options{
			InputFile:          csvInputFile,
			OutputFile:         csvOutputFile,
			SourceLanguage:     csvSourceLang,
			TargetLanguage:     csvTargetLang,
			Columns:            csvColumns,
			CheckpointStore:    checkpointStore,
			ResumeCheckpointID: resumeID,
		})
		if err != nil {
			return err
		}

		fmt.Printf("CSV translated: %d/%d cells translated, %d failed -> %s\n",
			result.CellsTranslated, result.CellsTotal, result.CellsFailed, csvOutputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Input CSV file (required)")
	csvCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "", "Output CSV file (required)")
	csvCmd.Flags().StringVarP(&csvSourceLang, "source", "s", "", "Source language code (required)")
	csvCmd.Flags().StringVarP(&csvTargetLang, "target", "t", "", "Target language code (required)")
	csvCmd.Flags().IntSliceVarP(&csvColumns, "column", "l", nil, "Column index to translate (0-indexed, repeatable; default: all columns)")

	csvCmd.Flags().StringVar(&csvDBPath, "db", "./data/checkpoints.db", "Checkpoint database path")
	csvCmd.Flags().BoolVar(&csvNoCache, "no-cache", false, "Disable checkpointing")
	csvCmd.Flags().StringVar(&csvResume, "resume", "", "Resume from checkpoint ID (printed at start of original run)")

	csvCmd.MarkFlagRequired("input")
	csvCmd.MarkFlagRequired("output")
	csvCmd.MarkFlagRequired("source")
	csvCmd.MarkFlagRequired("target")
}
