// Package storage implements the bit-stable on-disk layout described in
// spec §4.1/§6: one directory per language pair plus a user/ directory, each
// holding newline-delimited JSON files, mutated under an advisory file lock
// with atomic tmp-write-then-rename semantics.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockRetryBudget   = 5 * time.Second
)

// FileStore roots all reads and writes at Dir, laid out per spec §6:
//
//	<Dir>/<lang-pair>/{dictionary,phrases,grammar_rules,word_order_rules,post_processing_rules}.jsonl
//	<Dir>/user/{translation_history,user_translation_edits}.jsonl
//	<Dir>/user/user_settings.json
type FileStore struct {
	Dir string
}

// New returns a FileStore rooted at dir. The directory tree is created
// lazily on first write; New itself performs no I/O.
func New(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// LanguagePairDir returns the subdirectory holding a language pair's data
// files, e.g. "en-ru".
func (s *FileStore) LanguagePairDir(languagePair string) string {
	return filepath.Join(s.Dir, strings.ToLower(languagePair))
}

// UserDir returns the subdirectory holding user-scoped data.
func (s *FileStore) UserDir() string {
	return filepath.Join(s.Dir, "user")
}

// ReadAllText reads the entire file and decodes it per the BOM/heuristic
// rules in spec §4.1. A missing file returns "" and no error.
func (s *FileStore) ReadAllText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", newError(ErrKindIO, path, err)
	}
	return detectAndDecode(raw), nil
}

// ReadJSONL lazily decodes each non-blank line of path as a JSON object.
// Malformed lines are silently skipped (spec §4.1/§6: DataFormatError is
// never surfaced per-request). A missing file yields an empty sequence, not
// an error — callers observe this via readErr remaining nil after the
// sequence is exhausted.
func (s *FileStore) ReadJSONL(path string) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield(nil, newError(ErrKindIO, path, err))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				// DataFormatError: skipped silently, not surfaced.
				continue
			}
			if !yield(obj, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, newError(ErrKindIO, path, err))
		}
	}
}

// RewriteJSONL atomically replaces path's contents with one JSON line per
// item: write to path+".tmp", flush, close, then rename over the original.
// The rename is atomic with respect to concurrent readers on POSIX
// filesystems, so a reader mid-scan either sees the old file in full or the
// new one in full, never a partial mix.
func (s *FileStore) RewriteJSONL(path string, items []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError(ErrKindIO, path, err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return newError(ErrKindIO, tmpPath, err)
	}

	w := bufio.NewWriter(f)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return newError(ErrKindDecode, path, err)
		}
		if _, err := w.Write(line); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return newError(ErrKindIO, tmpPath, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return newError(ErrKindIO, tmpPath, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(ErrKindIO, tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return newError(ErrKindIO, tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return newError(ErrKindRename, path, err)
	}
	return nil
}

// AppendJSONL appends a single JSON line to path, creating the file and its
// parent directory if necessary.
func (s *FileStore) AppendJSONL(path string, item map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError(ErrKindIO, path, err)
	}
	line, err := json.Marshal(item)
	if err != nil {
		return newError(ErrKindDecode, path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return newError(ErrKindIO, path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return newError(ErrKindIO, path, err)
	}
	return nil
}

// ReadJSONObject reads and decodes a single JSON object file (used for
// user_settings.json). A missing file returns an empty map, not an error.
func (s *FileStore) ReadJSONObject(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, newError(ErrKindIO, path, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return map[string]any{}, nil // DataFormatError: treated as empty.
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// WriteJSONObject atomically rewrites a single JSON object file.
func (s *FileStore) WriteJSONObject(path string, obj map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError(ErrKindIO, path, err)
	}
	raw, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return newError(ErrKindDecode, path, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return newError(ErrKindIO, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return newError(ErrKindRename, path, err)
	}
	return nil
}

// WithFileLock acquires an advisory, OS-level exclusive lock on
// target+".lock" (via github.com/gofrs/flock, per the REDESIGN note in spec
// §9 preferring a real advisory lock over racy lockfile-creation), retrying
// with a fixed back-off up to lockRetryBudget, then runs action while holding
// it. The lock is released unconditionally once action returns.
func WithFileLock(target string, action func() error) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return newError(ErrKindIO, target, err)
	}

	lockPath := target + ".lock"
	fl := flock.New(lockPath)

	deadline := time.Now().Add(lockRetryBudget)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return newError(ErrKindLock, lockPath, err)
		}
		if locked {
			break
		}
		if time.Now().After(deadline) {
			return newError(ErrKindLock, lockPath, fmt.Errorf("timed out after %s", lockRetryBudget))
		}
		time.Sleep(lockRetryInterval)
	}
	defer fl.Unlock()

	return action()
}

// CopyFileForCrashTest is a test helper that snapshots a file's bytes so
// tests can assert atomicity of RewriteJSONL around a simulated crash.
func CopyFileForCrashTest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
