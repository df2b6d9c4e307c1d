// Package wordorder implements the component-detection-and-reordering
// pipeline stage (spec §4.11): sentences are split, words heuristically
// classified into syntactic roles, and core components reassembled into
// the target language's declared order before any WordOrderRule
// substitutions run.
package wordorder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/translation"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
	trailingPunct   = regexp.MustCompile(`[.!?]+$`)
)

// Layer implements layer.Layer for the word-order stage.
type Layer struct {
	repo *repository.WordOrderRulesRepository
}

// New builds the word-order Layer.
func New(repo *repository.WordOrderRulesRepository) *Layer {
	return &Layer{repo: repo}
}

func (l *Layer) Name() string        { return "word_order" }
func (l *Layer) Description() string { return "component detection and target-order reordering" }
func (l *Layer) Priority() int       { return layer.PriorityWordOrder }

// CanHandle runs only when source and target languages differ (spec §4.11).
func (l *Layer) CanHandle(ctx *translation.Context) bool {
	return ctx.SourceLanguage != ctx.TargetLanguage && strings.TrimSpace(ctx.TranslatedText) != ""
}

func (l *Layer) ValidateInput(ctx *translation.Context) error {
	if strings.TrimSpace(ctx.TranslatedText) == "" {
		return errEmptyText
	}
	return nil
}

// Process reorders each sentence's core components to ctx.TargetLanguage's
// declared order, then applies any loaded WordOrderRule substitutions.
//
// The reordering heuristics are tuned to English source text (spec §4.11
// leaves non-English sources undefined); when ctx.SourceLanguage isn't "en"
// the layer skips reordering entirely rather than risk corrupting text it
// has no lexical sets for, and records why in a debug warning.
func (l *Layer) Process(ctx *translation.Context) translation.LayerResult {
	text := ctx.TranslatedText

	if ctx.SourceLanguage != "en" {
		result := translation.NoChange(l.Name(), text)
		result.DebugInfo.Warnings = append(result.DebugInfo.Warnings, "heuristics tuned for English source")
		return result
	}

	sentences := sentencePattern.FindAllString(text, -1)
	reordered := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		reordered = append(reordered, reorderSentence(sentence, ctx.TargetLanguage))
	}
	text = strings.Join(reordered, " ")

	rules, err := l.repo.ForPair(ctx.LanguagePair())
	applied := 0
	if err == nil {
		applicable := filterRules(rules, ctx)
		for _, rule := range applicable {
			re, compileErr := regexp.Compile(rule.Pattern)
			if compileErr != nil {
				continue
			}
			if re.MatchString(text) {
				text = layer.ExpandAndReplace(re, text, rule.Replacement)
				applied++
			}
		}
	}

	result := translation.LayerResult{ProcessedText: text, Success: true, Confidence: 1.0}
	result.DebugInfo.ItemsProcessed = len(sentences)
	result.DebugInfo.ModificationsCount = applied
	return result
}

// reorderSentence splits off the sentence's words and trailing terminal
// punctuation, reorders the words, then reattaches the punctuation
// unchanged; no punctuation is invented that wasn't already present.
func reorderSentence(sentence string, targetLanguage string) string {
	term := trailingPunct.FindString(sentence)
	body := strings.TrimSpace(trailingPunct.ReplaceAllString(sentence, ""))
	if body == "" {
		return strings.TrimSpace(sentence)
	}

	words := strings.Fields(body)
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}

	// Classification runs on the lowercased copy but chunking keeps the
	// original-case words, so reordering never changes a word's
	// capitalization.
	roles := assignRoles(lowered)
	components := chunk(words, roles)
	text := reorder(components, targetLanguage)
	return strings.TrimSpace(text) + term
}

func filterRules(rules []repository.Rule, ctx *translation.Context) []repository.Rule {
	var out []repository.Rule
	for _, r := range rules {
		if !r.AppliesTo(ctx.SourceLanguage, ctx.TargetLanguage) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

type validationError string

func (e validationError) Error() string { return string(e) }

const errEmptyText = validationError("translated text must not be empty")
