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

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valpere/lexbridge/internal/langpair"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/storage"
)

// upserter is the common shape of GrammarRulesRepository, WordOrderRulesRepository
// and PostProcessingRulesRepository that rules import needs.
type upserter interface {
	Upsert(languagePair string, rule repository.Rule) error
}

var (
	rulesSource string
	rulesTarget string
	rulesKind   string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Bootstrap grammar, word-order and post-processing rule files",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Load a YAML rule file into a language pair's rule set",
	Long: `Import a YAML file of rules into the grammar, word-order or
post-processing rule set for a language pair.

The YAML file holds a top-level "rules" list whose entries mirror
repository.Rule:

  rules:
    - description: "split compound noun phrases"
      pattern: "(\\w+)-(\\w+)"
      replacement: "$1 $2"
      priority: 10
      case_sensitive: false

rule_id is assigned automatically; omit it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := langpair.Parse(rulesSource, rulesTarget)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read rule file: %w", err)
		}

		var doc struct {
			Rules []repository.Rule `yaml:"rules"`
		}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to parse rule file: %w", err)
		}

		repo, err := rulesRepositoryFor(rulesKind)
		if err != nil {
			return err
		}

		for i, rule := range doc.Rules {
			rule.SourceLanguage = pair.Source
			rule.TargetLanguage = pair.Target
			if err := repo.Upsert(pair.String(), rule); err != nil {
				return fmt.Errorf("rule %d (%s): %w", i, rule.Description, err)
			}
		}
		fmt.Printf("Imported %d %s rule(s) into %s\n", len(doc.Rules), rulesKind, pair)
		return nil
	},
}

func rulesRepositoryFor(kind string) (upserter, error) {
	fileStore := storage.New(dataDir)
	switch kind {
	case "grammar":
		return repository.NewGrammarRulesRepository(fileStore), nil
	case "wordorder":
		return repository.NewWordOrderRulesRepository(fileStore), nil
	case "postprocessing":
		return repository.NewPostProcessingRulesRepository(fileStore), nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q (expected grammar, wordorder or postprocessing)", kind)
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)

	rulesImportCmd.Flags().StringVarP(&rulesSource, "source", "s", "", "Source language code (required)")
	rulesImportCmd.Flags().StringVarP(&rulesTarget, "target", "t", "", "Target language code (required)")
	rulesImportCmd.Flags().StringVarP(&rulesKind, "kind", "k", "grammar", "Rule set to import into: grammar, wordorder, postprocessing")

	rulesImportCmd.MarkFlagRequired("source")
	rulesImportCmd.MarkFlagRequired("target")
}
