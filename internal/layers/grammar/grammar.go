// Package grammar implements the regex-rule rewriting pipeline stage (spec
// §4.10): repository-loaded rules filtered by language pair and token
// conditions, applied in descending priority with backreference expansion.
package grammar

import (
	"regexp"
	"sort"
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/translation"
)

var whitespaceCollapseFallback = regexp.MustCompile(`\s+`)

// Layer implements layer.Layer for the grammar stage.
type Layer struct {
	repo *repository.GrammarRulesRepository
}

// New builds the grammar Layer.
func New(repo *repository.GrammarRulesRepository) *Layer {
	return &Layer{repo: repo}
}

func (l *Layer) Name() string        { return "grammar" }
func (l *Layer) Description() string { return "regex-rule grammar rewriting" }
func (l *Layer) Priority() int       { return layer.PriorityGrammar }

func (l *Layer) CanHandle(ctx *translation.Context) bool {
	return strings.TrimSpace(ctx.TranslatedText) != ""
}

func (l *Layer) ValidateInput(ctx *translation.Context) error {
	if strings.TrimSpace(ctx.TranslatedText) == "" {
		return errEmptyText
	}
	return nil
}

func (l *Layer) Process(ctx *translation.Context) translation.LayerResult {
	rules, err := l.repo.ForPair(ctx.LanguagePair())
	if err != nil {
		// Unknown repository errors are non-fatal (spec §4.6): degrade to
		// no-change rather than aborting the pipeline.
		return translation.NoChange(l.Name(), ctx.TranslatedText)
	}

	applicable := filterRules(rules, ctx)
	if len(applicable) == 0 {
		return applyFallback(ctx.TranslatedText)
	}

	text := ctx.TranslatedText
	applied := 0
	for _, rule := range applicable {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			text = layer.ExpandAndReplace(re, text, rule.Replacement)
			applied++
		}
	}

	result := translation.LayerResult{ProcessedText: text, Success: true, Confidence: 1.0}
	result.DebugInfo.ItemsProcessed = len(applicable)
	result.DebugInfo.ModificationsCount = applied
	return result
}

// filterRules keeps rules that apply to the context's language pair and
// whose conditions (currently only has_token:<substr>) are satisfied,
// descending by priority.
func filterRules(rules []repository.Rule, ctx *translation.Context) []repository.Rule {
	var out []repository.Rule
	for _, r := range rules {
		if !r.AppliesTo(ctx.SourceLanguage, ctx.TargetLanguage) {
			continue
		}
		if !conditionsMet(r.Conditions, ctx.Tokens) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func conditionsMet(conditions []string, tokens []string) bool {
	for _, cond := range conditions {
		const prefix = "has_token:"
		if !strings.HasPrefix(cond, prefix) {
			continue
		}
		needle := strings.ToLower(strings.TrimPrefix(cond, prefix))
		found := false
		for _, tok := range tokens {
			if strings.Contains(strings.ToLower(tok), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// applyFallback collapses repeated whitespace, the one safe built-in rule
// the spec requires when no repository rules are configured for a pair.
func applyFallback(text string) translation.LayerResult {
	collapsed := whitespaceCollapseFallback.ReplaceAllString(text, " ")
	result := translation.LayerResult{ProcessedText: collapsed, Success: true, Confidence: 1.0}
	if collapsed != text {
		result.DebugInfo.ModificationsCount = 1
	}
	return result
}

type validationError string

func (e validationError) Error() string { return string(e) }

const errEmptyText = validationError("translated text must not be empty")
