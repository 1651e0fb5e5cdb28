package draftstore

import (
	"context"
	"sync"
	"time"

	"restoree/internal/domain/certificate"
)

type memoryEntry struct {
	data    []byte
	savedAt time.Time
}

// MemoryStore keeps encoded drafts in process memory. Drafts round-trip
// through the same encoding as the persistent stores.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*certificate.Draft, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	return decodeDraft(entry.data)
}

func (s *MemoryStore) Save(ctx context.Context, key string, d *certificate.Draft) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	now := s.now()
	data, err := encodeDraft(d, now)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, savedAt: now}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.savedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored drafts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Put stores raw bytes under key, bypassing encoding. Tests use it to plant
// corrupt payloads.
func (s *MemoryStore) Put(key string, raw []byte) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{data: raw, savedAt: s.now()}
	s.mu.Unlock()
}
