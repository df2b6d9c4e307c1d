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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/lexbridge/internal/langpair"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/storage"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, and delete terminology glossary entries.

Glossary entries ensure that specific source terms are always translated
to the same target term, the same way Context.ForceTranslations does for a
single request — useful for proper nouns, brand names, and domain-specific
vocabulary. Entries are stored under <data>/<source>-<target>/glossary.jsonl
and are loaded automatically by every translate call for that language pair
that does not supply its own --force overrides.`,
}

var (
	glossarySource string
	glossaryTarget string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all glossary entries for a language pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := resolveGlossaryPair()
		if err != nil {
			return err
		}
		repo := repository.NewGlossaryRepository(storage.New(dataDir))

		entries, err := repo.List(pair.String())
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source-language term to a target-language term.

Example:
  lexbridge glossary add "Kyiv" "Київ" --source en --target uk`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := resolveGlossaryPair()
		if err != nil {
			return err
		}
		repo := repository.NewGlossaryRepository(storage.New(dataDir))

		entry := repository.GlossaryEntry{
			LanguagePair: pair.String(),
			SourceTerm:   args[0],
			TargetTerm:   args[1],
		}
		if err := repo.Upsert(entry); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added: [%s] %q -> %q\n", pair, args[0], args[1])
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <source-term>",
	Short: "Delete a glossary entry by source term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := resolveGlossaryPair()
		if err != nil {
			return err
		}
		repo := repository.NewGlossaryRepository(storage.New(dataDir))

		if err := repo.Delete(pair.String(), args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		fmt.Printf("Deleted glossary entry: [%s] %q\n", pair, args[0])
		return nil
	},
}

func resolveGlossaryPair() (langpair.Pair, error) {
	if glossarySource == "" {
		return langpair.Pair{}, fmt.Errorf("--source language flag is required")
	}
	if glossaryTarget == "" {
		return langpair.Pair{}, fmt.Errorf("--target language flag is required")
	}
	return langpair.Parse(glossarySource, glossaryTarget)
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().StringVarP(&glossarySource, "source", "s", "", "Source language code (e.g. en)")
	glossaryCmd.PersistentFlags().StringVarP(&glossaryTarget, "target", "t", "", "Target language code (e.g. uk)")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
