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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/lexbridge/internal/chunker"
	"github.com/valpere/lexbridge/internal/engine"
	"github.com/valpere/lexbridge/internal/placeholder"
	"github.com/valpere/lexbridge/internal/validator"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
	sessionID  string

	qualityMode   bool
	forceTerms    []string
	excludedWords []string

	protectMarkup  bool
	chunkSize      int
	validateResult bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text through the offline pipeline",
	Long: `Translate a file (or, with literal text arguments, a string) from
one language to another through the preprocessing, phrase, dictionary,
grammar, word-order and post-processing layers.

--source auto runs the statistical language detector first; any other value
is used as-is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" && len(args) == 0 {
			return engine.UsageError(fmt.Errorf("either --input or a literal text argument is required"))
		}
		if inputFile != "" && inputFile == outputFile {
			return engine.UsageError(fmt.Errorf("input file and output file cannot be the same"))
		}

		var text string
		if inputFile != "" {
			raw, err := os.ReadFile(inputFile)
			if err != nil {
				return engine.NoInputError(fmt.Errorf("failed to read input file: %w", err))
			}
			text = string(raw)
		} else {
			text = strings.Join(args, " ")
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Dispose()

		source := sourceLang
		if source == "auto" {
			if detected, ok := eng.DetectLanguage(text); ok {
				source = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", source)
			} else {
				return fmt.Errorf("could not auto-detect source language, pass --source explicitly")
			}
		}

		var markers []string
		if protectMarkup {
			text, markers = placeholder.Protect(text)
			if len(markers) > 0 {
				fmt.Fprintf(os.Stderr, "Protected %d markup span(s) from translation\n", len(markers))
			}
		}

		chunks := []string{text}
		if chunkSize > 0 {
			chunks = chunker.Chunk(text, chunkSize)
			if len(chunks) > 1 {
				fmt.Fprintf(os.Stderr, "Translating in %d chunks of up to %d characters\n", len(chunks), chunkSize)
			}
		}

		opts := &engine.TranslateOptions{
			SessionID:         sessionID,
			DebugMode:         debug,
			QualityMode:       qualityMode,
			ForceTranslations: parseForceTerms(forceTerms),
			ExcludedWords:     excludedWords,
		}

		var v *validator.Validator
		if validateResult {
			v = validator.New()
		}

		translated := make([]string, len(chunks))
		for i, chunk := range chunks {
			result, translateErr := eng.Translate(context.Background(), chunk, source, targetLang, opts)
			if translateErr != nil {
				return translateErr
			}
			translated[i] = result.TranslatedText

			if debug {
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				_ = enc.Encode(result)
			}

			if v != nil {
				if ok, err := v.IsValid(result.TranslatedText, targetLang); !ok {
					fmt.Fprintf(os.Stderr, "Warning: chunk %d may not be in %s: %v\n", i, targetLang, err)
				}
			}
		}

		finalText := strings.Join(translated, "\n\n")
		if protectMarkup && len(markers) > 0 {
			finalText = placeholder.Restore(finalText, markers)
			if missing := placeholder.Validate(finalText, markers); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "Warning: %d placeholder(s) missing after translation: %v\n", len(missing), missing)
			}
		}

		if outputFile != "" {
			return writeOutput(outputFile, finalText)
		}
		fmt.Println(finalText)
		return nil
	},
}

// parseForceTerms turns a list of "source=target" strings (as --force may be
// repeated) into the map Engine.Translate expects. Entries with no '=' are
// skipped rather than rejected, since a typo here should not abort a
// translation that does not depend on it.
func parseForceTerms(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// writeOutput writes the translated text to outputFile and prints a summary.
func writeOutput(outputFile, text string) error {
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Translated text written to %s\n", outputFile)
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate (omit to pass text as arguments)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for translation (omit to print to stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code, or \"auto\" to detect")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVar(&sessionID, "session-id", "", "Session ID to group this request with others in translation history")

	translateCmd.Flags().BoolVar(&qualityMode, "quality", false, "Run additional quality scoring during translation")
	translateCmd.Flags().StringSliceVar(&forceTerms, "force", nil, "Force a specific translation for a term, as source=target (repeatable)")
	translateCmd.Flags().StringSliceVar(&excludedWords, "exclude", nil, "Word to leave untranslated (repeatable)")

	translateCmd.Flags().BoolVar(&protectMarkup, "protect-markup", false, "Protect HTML tags and code spans with placeholders before translating")
	translateCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Split input into chunks of at most N characters, translated independently (0 = no chunking)")
	translateCmd.Flags().BoolVar(&validateResult, "validate", false, "Warn on stderr if a translated chunk does not appear to be in the target language")

	translateCmd.MarkFlagRequired("target")
}
