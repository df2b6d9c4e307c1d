package repository

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lexbridge/internal/storage"
)

const (
	translationHistoryFile = "translation_history.jsonl"
	userEditsFile          = "user_translation_edits.jsonl"
	userSettingsFile       = "user_settings.json"
)

// UserDataRepository mediates the user-scoped, cross-language-pair data
// described in spec §4.3: translation history, manual edits, and free-form
// settings, all rooted under <dir>/user/.
type UserDataRepository struct {
	store *storage.FileStore
}

// NewUserDataRepository builds a UserDataRepository.
func NewUserDataRepository(store *storage.FileStore) *UserDataRepository {
	return &UserDataRepository{store: store}
}

func (r *UserDataRepository) historyPath() string {
	return filepath.Join(r.store.UserDir(), translationHistoryFile)
}

func (r *UserDataRepository) editsPath() string {
	return filepath.Join(r.store.UserDir(), userEditsFile)
}

func (r *UserDataRepository) settingsPath() string {
	return filepath.Join(r.store.UserDir(), userSettingsFile)
}

// AppendHistory appends one completed translation to the history log. History
// is append-only: it is never rewritten in place, so concurrent writers never
// need to contend over the whole file, only the append itself.
func (r *UserDataRepository) AppendHistory(entry TranslationHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	m, err := toMap(entry)
	if err != nil {
		return err
	}
	return storage.WithFileLock(r.historyPath(), func() error {
		return r.store.AppendJSONL(r.historyPath(), m)
	})
}

// ListHistory returns up to limit most recent history entries, most recent
// first. limit <= 0 means unbounded.
func (r *UserDataRepository) ListHistory(limit int) ([]TranslationHistoryEntry, error) {
	var entries []TranslationHistoryEntry
	for obj, err := range r.store.ReadJSONL(r.historyPath()) {
		if err != nil {
			return nil, err
		}
		entry, err := fromMap[TranslationHistoryEntry](obj)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// AddEdit appends a user correction record.
func (r *UserDataRepository) AddEdit(edit UserTranslationEdit) error {
	now := time.Now().UTC()
	if edit.ID == "" {
		edit.ID = uuid.NewString()
		edit.CreatedAt = now
	}
	edit.UpdatedAt = now
	m, err := toMap(edit)
	if err != nil {
		return err
	}
	return storage.WithFileLock(r.editsPath(), func() error {
		return r.store.AppendJSONL(r.editsPath(), m)
	})
}

// ListEdits returns every recorded edit for languagePair ("" means every
// language pair).
func (r *UserDataRepository) ListEdits(languagePair string) ([]UserTranslationEdit, error) {
	var edits []UserTranslationEdit
	for obj, err := range r.store.ReadJSONL(r.editsPath()) {
		if err != nil {
			return nil, err
		}
		edit, err := fromMap[UserTranslationEdit](obj)
		if err != nil {
			continue
		}
		if languagePair != "" && edit.LanguagePair != languagePair {
			continue
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// FindEditForText returns the most recent approved edit of text in
// languagePair, if any (spec §4.3). Unapproved edits never match.
func (r *UserDataRepository) FindEditForText(text, languagePair string) (UserTranslationEdit, bool, error) {
	edits, err := r.ListEdits(languagePair)
	if err != nil {
		return UserTranslationEdit{}, false, err
	}
	var best UserTranslationEdit
	found := false
	for _, e := range edits {
		if !e.IsApproved || e.OriginalText != text {
			continue
		}
		if !found || e.CreatedAt.After(best.CreatedAt) {
			best = e
			found = true
		}
	}
	return best, found, nil
}

// GetSetting returns the value for key, if set.
func (r *UserDataRepository) GetSetting(key string) (string, bool, error) {
	obj, err := r.store.ReadJSONObject(r.settingsPath())
	if err != nil {
		return "", false, err
	}
	entry, ok := obj[key]
	if !ok {
		return "", false, nil
	}
	m, ok := entry.(map[string]any)
	if !ok {
		return "", false, nil
	}
	value, _ := m["value"].(string)
	return value, true, nil
}

// SetSetting upserts a (key, value, description) triple.
func (r *UserDataRepository) SetSetting(key, value, description string) error {
	return storage.WithFileLock(r.settingsPath(), func() error {
		obj, err := r.store.ReadJSONObject(r.settingsPath())
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		setting := UserSetting{Key: key, Value: value, Description: description, UpdatedAt: now}
		if existing, ok := obj[key].(map[string]any); ok {
			if created, ok := existing["created_at"].(string); ok {
				if t, err := time.Parse(time.RFC3339, created); err == nil {
					setting.CreatedAt = t
				}
			}
		}
		if setting.CreatedAt.IsZero() {
			setting.CreatedAt = now
		}
		m, err := toMap(setting)
		if err != nil {
			return err
		}
		obj[key] = m
		return r.store.WriteJSONObject(r.settingsPath(), obj)
	})
}

// AllSettings returns every stored setting keyed by Key.
func (r *UserDataRepository) AllSettings() (map[string]UserSetting, error) {
	obj, err := r.store.ReadJSONObject(r.settingsPath())
	if err != nil {
		return nil, err
	}
	out := make(map[string]UserSetting, len(obj))
	for k, v := range obj {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		setting, err := fromMap[UserSetting](m)
		if err != nil {
			continue
		}
		out[k] = setting
	}
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
