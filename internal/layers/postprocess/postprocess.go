// Package postprocess implements the final pipeline stage (spec §4.12): a
// configurable sequence of spacing, capitalization, punctuation,
// language-formatting, rule, and cleanup passes, finishing with a text
// quality score.
package postprocess

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/valpere/lexbridge/internal/layer"
	"github.com/valpere/lexbridge/internal/repository"
	"github.com/valpere/lexbridge/internal/translation"
)

// Layer implements layer.Layer for the post-processing stage.
type Layer struct {
	repo *repository.PostProcessingRulesRepository
	opts Options
}

// New builds the post-processing Layer with the given Options.
func New(repo *repository.PostProcessingRulesRepository, opts Options) *Layer {
	return &Layer{repo: repo, opts: opts}
}

func (l *Layer) Name() string        { return "post_processing" }
func (l *Layer) Description() string { return "spacing, capitalization, punctuation, and quality scoring" }
func (l *Layer) Priority() int       { return layer.PriorityPostProcessing }

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
	text := ctx.TranslatedText
	corrections := 0

	if l.opts.EnableSpacing {
		before := text
		text = applySpacing(text)
		if text != before {
			corrections++
		}
	}
	if l.opts.EnableCapitalization {
		before := text
		text = applyCapitalization(text, ctx.TargetLanguage)
		if text != before {
			corrections++
		}
	}
	if l.opts.EnablePunctuation {
		before := text
		text = applyPunctuation(text, ctx.TargetLanguage, l.opts.AddMissingPeriods)
		if text != before {
			corrections++
		}
	}
	if l.opts.EnableLanguageFormatting {
		before := text
		text = applyLanguageFormatting(text, ctx.TargetLanguage, l.opts.DoubleSpaceAfterSentence)
		if text != before {
			corrections++
		}
	}

	rulesApplied := 0
	if l.opts.EnableRules {
		rules, err := l.repo.ForPair(ctx.LanguagePair())
		if err == nil {
			applicable := filterRules(rules, ctx)
			for _, rule := range applicable {
				re, compileErr := regexp.Compile(rule.Pattern)
				if compileErr != nil {
					continue
				}
				if re.MatchString(text) {
					text = layer.ExpandAndReplace(re, text, rule.Replacement)
					rulesApplied++
				}
			}
		}
	}
	corrections += rulesApplied

	if l.opts.EnableFinalCleanup {
		before := text
		text = applyFinalCleanup(text)
		if text != before {
			corrections++
		}
	}

	metrics := computeMetrics(text, corrections)
	ctx.SetMetadata("quality_score", fmt.Sprintf("%.4f", metrics.QualityScore))
	ctx.SetMetadata("quality_word_count", fmt.Sprintf("%d", metrics.WordCount))
	ctx.SetMetadata("quality_sentence_count", fmt.Sprintf("%d", metrics.SentenceCount))

	result := translation.LayerResult{
		ProcessedText: text,
		Success:       true,
		Confidence:    metrics.QualityScore,
	}
	result.DebugInfo.ModificationsCount = corrections
	result.DebugInfo.AdditionalInfo = map[string]string{
		"quality_score": fmt.Sprintf("%.4f", metrics.QualityScore),
	}
	return result
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
