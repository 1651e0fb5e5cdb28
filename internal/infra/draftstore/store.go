// Package draftstore persists certificate drafts keyed by session.
package draftstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"restoree/internal/domain/certificate"
	jsonx "restoree/internal/shared/json"
)

var (
	// ErrDraftNotFound means no draft has been saved under the key.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrCorruptDraft means a stored payload exists but cannot be decoded.
	ErrCorruptDraft = errors.New("stored draft is corrupt")
	// ErrInvalidKey rejects keys that are unsafe as file names or row ids.
	ErrInvalidKey = errors.New("invalid session key")
)

const payloadVersion = 1

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Pruner deletes drafts that have not been saved since cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// ValidKey reports whether key can address a stored draft.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

type payload struct {
	Version int                `json:"version"`
	SavedAt time.Time          `json:"saved_at"`
	Draft   *certificate.Draft `json:"draft"`
}

func encodeDraft(d *certificate.Draft, savedAt time.Time) ([]byte, error) {
	if d == nil {
		return nil, errors.New("draft cannot be nil")
	}
	data, err := jsonx.MarshalIndent(payload{Version: payloadVersion, SavedAt: savedAt.UTC(), Draft: d}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDraft(data []byte) (*certificate.Draft, error) {
	var p payload
	if err := jsonx.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDraft, err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptDraft, p.Version)
	}
	if p.Draft == nil {
		return nil, fmt.Errorf("%w: missing draft", ErrCorruptDraft)
	}
	p.Draft.Normalize()
	return p.Draft, nil
}

func checkKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
