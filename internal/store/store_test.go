package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_New(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_GetCachedTranslation_Miss(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected not found for uncached translation")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_GetCachedTranslation_Hit(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	err = s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")
	if err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Error("expected to find cached translation")
	}
	if text != "Привіт" {
		t.Errorf("expected 'Привіт', got %q", text)
	}
}

func TestStore_GetCachedTranslation_Invalidated(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	err = s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")
	if err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	entries, err := s.ListMemory(context.Background())
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one entry")
	}

	err = s.InvalidateMemory(context.Background(), entries[0].ID)
	if err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected not found for invalidated translation")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_FuzzyGetCachedTranslation(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if err := s.SaveToMemory(context.Background(), "Hello there", "en", "uk", "Привіт там"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.FuzzyGetCachedTranslation(context.Background(), "Hello there!", "en", "uk", 0.8)
	if err != nil {
		t.Errorf("FuzzyGetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Error("expected a fuzzy match above threshold")
	}
	if text != "Привіт там" {
		t.Errorf("expected 'Привіт там', got %q", text)
	}

	_, found, err = s.FuzzyGetCachedTranslation(context.Background(), "Completely different sentence", "en", "uk", 0.8)
	if err != nil {
		t.Errorf("FuzzyGetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected no match for a dissimilar sentence")
	}
}

func TestStore_Stats(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Errorf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 0 {
		t.Errorf("expected 0 total entries, got %d", stats.TotalEntries)
	}

	s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")
	s.SaveToMemory(context.Background(), "World", "en", "uk", "Світ")

	stats, err = s.Stats(context.Background())
	if err != nil {
		t.Errorf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("expected 2 total entries, got %d", stats.TotalEntries)
	}
	if stats.ActiveEntries != 2 {
		t.Errorf("expected 2 active entries, got %d", stats.ActiveEntries)
	}
}

func TestStore_DeleteMemory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")

	entries, err := s.ListMemory(context.Background())
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one entry")
	}

	err = s.DeleteMemory(context.Background(), entries[0].ID)
	if err != nil {
		t.Errorf("DeleteMemory failed: %v", err)
	}

	entries, err = s.ListMemory(context.Background())
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries after delete, got %d", len(entries))
	}
}

func TestStore_ClearMemory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")
	s.SaveToMemory(context.Background(), "World", "en", "uk", "Світ")

	count, err := s.ClearMemory(context.Background())
	if err != nil {
		t.Errorf("ClearMemory failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 cleared, got %d", count)
	}

	entries, err := s.ListMemory(context.Background())
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries after clear, got %d", len(entries))
	}
}

func TestStore_CSVCheckpoint(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	cpID, err := s.CreateCSVCheckpoint(context.Background(), "input.csv", "output.csv", "en", "uk")
	if err != nil {
		t.Fatalf("CreateCSVCheckpoint failed: %v", err)
	}

	cp, err := s.GetCSVCheckpoint(context.Background(), cpID)
	if err != nil {
		t.Fatalf("GetCSVCheckpoint failed: %v", err)
	}
	if cp.InputFile != "input.csv" {
		t.Errorf("expected input.csv, got %q", cp.InputFile)
	}
	if cp.Status != "running" {
		t.Errorf("expected running status, got %q", cp.Status)
	}

	err = s.SaveCSVCell(context.Background(), cpID, 0, 1, "Translated cell")
	if err != nil {
		t.Errorf("SaveCSVCell failed: %v", err)
	}

	cells, err := s.GetCSVCells(context.Background(), cpID)
	if err != nil {
		t.Fatalf("GetCSVCells failed: %v", err)
	}
	if cells["0:1"] != "Translated cell" {
		t.Errorf("expected 'Translated cell', got %q", cells["0:1"])
	}

	err = s.CompleteCSVCheckpoint(context.Background(), cpID)
	if err != nil {
		t.Errorf("CompleteCSVCheckpoint failed: %v", err)
	}

	cp, err = s.GetCSVCheckpoint(context.Background(), cpID)
	if err != nil {
		t.Fatalf("GetCSVCheckpoint failed: %v", err)
	}
	if cp.Status != "completed" {
		t.Errorf("expected completed status, got %q", cp.Status)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello  ", "Hello"},
		{"Hello World", "Hello World"}, // NFC normalization
		{"\t\nHello\t\n", "Hello"},
		{"", ""},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestStore_MultipleLanguagePairs(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	s.SaveToMemory(context.Background(), "Hello", "en", "uk", "Привіт")
	s.SaveToMemory(context.Background(), "Hello", "en", "de", "Hallo")
	s.SaveToMemory(context.Background(), "Hello", "en", "fr", "Bonjour")

	text, found, _ := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if !found || text != "Привіт" {
		t.Errorf("en->uk: expected found=true and 'Привіт', got found=%v and %q", found, text)
	}

	text, found, _ = s.GetCachedTranslation(context.Background(), "Hello", "en", "de")
	if !found || text != "Hallo" {
		t.Errorf("en->de: expected found=true and 'Hallo', got found=%v and %q", found, text)
	}

	text, found, _ = s.GetCachedTranslation(context.Background(), "Hello", "en", "fr")
	if !found || text != "Bonjour" {
		t.Errorf("en->fr: expected found=true and 'Bonjour', got found=%v and %q", found, text)
	}

	text, found, _ = s.GetCachedTranslation(context.Background(), "Hello", "en", "es")
	if found {
		t.Error("en->es: expected not found")
	}
}
