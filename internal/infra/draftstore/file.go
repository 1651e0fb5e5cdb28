package draftstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"restoree/internal/domain/certificate"
)

const draftExt = ".json"

// FileStore keeps one JSON document per session key under a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("draft directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+draftExt)
}

// Load reads the draft saved under key.
func (s *FileStore) Load(ctx context.Context, key string) (*certificate.Draft, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readDraftFile(s.path(key))
}

// Save atomically replaces the draft saved under key.
func (s *FileStore) Save(ctx context.Context, key string, d *certificate.Draft) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	data, err := encodeDraft(d, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicWrite(s.path(key), data)
}

// Delete removes the draft; deleting a missing draft is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Prune deletes drafts whose file was last written before cutoff.
func (s *FileStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list drafts: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, draftExt) || !ValidKey(strings.TrimSuffix(name, draftExt)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("prune %s: %w", name, err)
			}
			removed++
		}
	}
	return removed, nil
}

// SingleFileStore keeps exactly one draft at a fixed path and ignores the
// session key. The CLI uses it to work on a draft file directly.
type SingleFileStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewSingleFileStore stores the draft at path.
func NewSingleFileStore(path string) *SingleFileStore {
	return &SingleFileStore{path: path, now: time.Now}
}

func (s *SingleFileStore) Load(ctx context.Context, _ string) (*certificate.Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readDraftFile(s.path)
}

func (s *SingleFileStore) Save(ctx context.Context, _ string, d *certificate.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDraft(d, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicWrite(s.path, data)
}

func (s *SingleFileStore) Delete(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func readDraftFile(path string) (*certificate.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("read draft: %w", err)
	}
	return decodeDraft(data)
}

// atomicWrite writes through a temp file in the same directory and renames
// it over path, so readers never observe a partial document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create draft directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp draft: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close draft: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace draft: %w", err)
	}
	return nil
}
