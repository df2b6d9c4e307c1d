package translation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Context is the per-request mutable state threaded through every layer of
// the pipeline. It is created once per translate call and discarded when the
// call completes; concurrent access to a single Context is not supported —
// contexts are single-request objects (layers execute sequentially, see
// pipeline.Pipeline).
type Context struct {
	SourceLanguage string
	TargetLanguage string
	SessionID      string
	DebugMode      bool
	QualityMode    bool

	OriginalText   string
	TranslatedText string
	Tokens         []string

	// PreprocessingTokens is the tokenizer output, consumed by the phrase and
	// dictionary layers.
	PreprocessingTokens []TextToken
	TokenCount          int
	DetectedLanguage    string

	// PhraseProtectedRanges are output-coordinate spans the dictionary and
	// later layers must not rewrite.
	PhraseProtectedRanges []ProtectedRange
	PhraseApplied         bool

	DictionaryTranslations  map[string]string
	TranslatedTokens        []string
	DictionarySuccessRate   float64

	ForceTranslations map[string]string
	ExcludedWords     map[string]struct{}

	// AdditionalInfo is the open channel for layer-specific diagnostics that
	// don't warrant a named slot.
	AdditionalInfo map[string]string
}

// LanguagePair renders "source-target" lowercased, as persisted keys expect.
func (c *Context) LanguagePair() string {
	return strings.ToLower(c.SourceLanguage) + "-" + strings.ToLower(c.TargetLanguage)
}

// New creates a Context for one translate call. SourceLanguage/TargetLanguage
// are lowercased per the LanguagePair invariant; a SessionID is generated if
// the caller does not supply one via WithSessionID.
func New(originalText, sourceLanguage, targetLanguage string) *Context {
	return &Context{
		SourceLanguage:         strings.ToLower(sourceLanguage),
		TargetLanguage:         strings.ToLower(targetLanguage),
		SessionID:              uuid.NewString(),
		OriginalText:           originalText,
		TranslatedText:         originalText,
		DictionaryTranslations: make(map[string]string),
		ForceTranslations:      make(map[string]string),
		ExcludedWords:          make(map[string]struct{}),
		AdditionalInfo:         make(map[string]string),
	}
}

// IsQualityModeEnabled affects confidence scoring in the dictionary layer.
func (c *Context) IsQualityModeEnabled() bool {
	return c.QualityMode
}

// SetMetadata sets a diagnostic key in AdditionalInfo. Well-known signals
// (tokens, protected ranges, …) have dedicated typed fields above and should
// not be duplicated here.
func (c *Context) SetMetadata(key, value string) {
	if c.AdditionalInfo == nil {
		c.AdditionalInfo = make(map[string]string)
	}
	c.AdditionalInfo[key] = value
}

// GetMetadata reads a diagnostic key previously set with SetMetadata.
func (c *Context) GetMetadata(key string) (string, bool) {
	v, ok := c.AdditionalInfo[key]
	return v, ok
}

// IsExcluded reports whether normalizedWord is in the exclusion set.
func (c *Context) IsExcluded(normalizedWord string) bool {
	_, ok := c.ExcludedWords[normalizedWord]
	return ok
}

// IsProtected reports whether the half-open span [start, end) overlaps any
// recorded protected range.
func (c *Context) IsProtected(start, end int) bool {
	span := ProtectedRange{Start: start, End: end}
	for _, r := range c.PhraseProtectedRanges {
		if r.Overlaps(span) {
			return true
		}
	}
	return false
}

// AddProtectedRange records a new protected span, keeping the slice sorted
// by Start as spec §8 requires (pairwise non-overlapping, monotonic order).
func (c *Context) AddProtectedRange(r ProtectedRange) error {
	for _, existing := range c.PhraseProtectedRanges {
		if existing.Overlaps(r) {
			return fmt.Errorf("protected range [%d,%d) overlaps existing [%d,%d)", r.Start, r.End, existing.Start, existing.End)
		}
	}
	c.PhraseProtectedRanges = append(c.PhraseProtectedRanges, r)
	for i := len(c.PhraseProtectedRanges) - 1; i > 0 && c.PhraseProtectedRanges[i-1].Start > c.PhraseProtectedRanges[i].Start; i-- {
		c.PhraseProtectedRanges[i-1], c.PhraseProtectedRanges[i] = c.PhraseProtectedRanges[i], c.PhraseProtectedRanges[i-1]
	}
	return nil
}

// Clone produces an independent copy of the context, deep-copying the
// mutable collections so a cloned pipeline run cannot observe or corrupt the
// original's state.
func (c *Context) Clone() *Context {
	clone := *c

	clone.PreprocessingTokens = append([]TextToken(nil), c.PreprocessingTokens...)
	clone.PhraseProtectedRanges = append([]ProtectedRange(nil), c.PhraseProtectedRanges...)
	clone.Tokens = append([]string(nil), c.Tokens...)
	clone.TranslatedTokens = append([]string(nil), c.TranslatedTokens...)

	clone.DictionaryTranslations = make(map[string]string, len(c.DictionaryTranslations))
	for k, v := range c.DictionaryTranslations {
		clone.DictionaryTranslations[k] = v
	}
	clone.ForceTranslations = make(map[string]string, len(c.ForceTranslations))
	for k, v := range c.ForceTranslations {
		clone.ForceTranslations[k] = v
	}
	clone.ExcludedWords = make(map[string]struct{}, len(c.ExcludedWords))
	for k, v := range c.ExcludedWords {
		clone.ExcludedWords[k] = v
	}
	clone.AdditionalInfo = make(map[string]string, len(c.AdditionalInfo))
	for k, v := range c.AdditionalInfo {
		clone.AdditionalInfo[k] = v
	}

	return &clone
}
