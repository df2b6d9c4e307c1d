// Package repository mediates between the pipeline layers and on-disk JSONL
// data (spec §4.3): every read goes cache-first when allowed, every write
// goes through storage.WithFileLock plus an atomic rewrite or append.
package repository

import "time"

// DictionaryEntry is one source→target word mapping for a language pair
// (spec §3). SourceWord is persisted lowercased and trimmed; TargetWord
// preserves case.
type DictionaryEntry struct {
	ID           string    `json:"id"`
	SourceWord   string    `json:"source_word"`
	TargetWord   string    `json:"target_word"`
	LanguagePair string    `json:"language_pair"`
	PartOfSpeech string    `json:"part_of_speech,omitempty"`
	Definition   string    `json:"definition,omitempty"`
	Frequency    int       `json:"frequency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PhraseEntry is one source→target phrase mapping (spec §3). SourcePhrase is
// normalized (lowercased, whitespace-collapsed) for keying and must be at
// least two words; Confidence is a percentage in [0,100].
type PhraseEntry struct {
	ID            string    `json:"id"`
	SourcePhrase  string    `json:"source_phrase"`
	TargetPhrase  string    `json:"target_phrase"`
	LanguagePair  string    `json:"language_pair"`
	Category      string    `json:"category,omitempty"`
	Context       string    `json:"context,omitempty"`
	Confidence    int       `json:"confidence"`
	Frequency     int       `json:"frequency"`
	UsageCount    int       `json:"usage_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TranslationHistoryEntry records one completed translate call (spec §3).
type TranslationHistoryEntry struct {
	ID               string            `json:"id"`
	OriginalText     string            `json:"original_text"`
	TranslatedText   string            `json:"translated_text"`
	LanguagePair     string            `json:"language_pair"`
	Confidence       float64           `json:"confidence"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
	Timestamp        time.Time         `json:"timestamp"`
	SessionID        string            `json:"session_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// UserSetting is one (key, value) configuration pair; keys are unique.
type UserSetting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserTranslationEdit records a user's manual correction of a translation.
type UserTranslationEdit struct {
	ID                  string    `json:"id"`
	OriginalText        string    `json:"original_text"`
	OriginalTranslation string    `json:"original_translation"`
	UserTranslation     string    `json:"user_translation"`
	LanguagePair        string    `json:"language_pair"`
	Reason              string    `json:"reason,omitempty"`
	IsApproved          bool      `json:"is_approved"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Rule is the shared shape of GrammarRule/WordOrderRule/PostProcessingRule
// (spec §3/§6): pattern is a regex, Replacement supports $1.., \1.. and
// ${N} backreferences (see internal/layer.ExpandAndReplace).
type Rule struct {
	RuleID          string   `json:"rule_id" yaml:"rule_id,omitempty"`
	SourceLanguage  string   `json:"source_language" yaml:"source_language,omitempty"`
	TargetLanguage  string   `json:"target_language" yaml:"target_language,omitempty"`
	Description     string   `json:"description" yaml:"description,omitempty"`
	Pattern         string   `json:"pattern" yaml:"pattern"`
	CaseSensitive   bool     `json:"case_sensitive" yaml:"case_sensitive,omitempty"`
	Replacement     string   `json:"replacement" yaml:"replacement"`
	Priority        int      `json:"priority" yaml:"priority"`
	Conditions      []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	IsGlobal        bool     `json:"is_global,omitempty" yaml:"is_global,omitempty"`
	TargetLanguages []string `json:"target_languages,omitempty" yaml:"target_languages,omitempty"`
}

// AppliesTo reports whether the rule applies to the given language pair.
// "any" in SourceLanguage/TargetLanguage matches every language.
func (r Rule) AppliesTo(source, target string) bool {
	sourceOK := r.SourceLanguage == "" || r.SourceLanguage == "any" || r.SourceLanguage == source
	targetOK := r.TargetLanguage == "" || r.TargetLanguage == "any" || r.TargetLanguage == target
	if !sourceOK || !targetOK {
		return false
	}
	if len(r.TargetLanguages) > 0 {
		found := false
		for _, t := range r.TargetLanguages {
			if t == target {
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

// GlossaryEntry is a persisted forced-translation override for a language
// pair (supplemented feature, see SPEC_FULL.md §4).
type GlossaryEntry struct {
	ID           string    `json:"id"`
	LanguagePair string    `json:"language_pair"`
	SourceTerm   string    `json:"source_term"`
	TargetTerm   string    `json:"target_term"`
	CreatedAt    time.Time `json:"created_at"`
}
