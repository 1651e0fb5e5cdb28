package draftstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"restoree/internal/domain/certificate"
)

type draftStore interface {
	Load(ctx context.Context, key string) (*certificate.Draft, error)
	Save(ctx context.Context, key string, d *certificate.Draft) error
	Delete(ctx context.Context, key string) error
}

func sampleDraft(t *testing.T) *certificate.Draft {
	t.Helper()
	d := certificate.NewDraft()
	d.Customer.Name = "Marta"
	d.Article.NameSelect = "Bag"
	if err := d.SetMetric(certificate.DimensionColor, certificate.SideBefore, "4"); err != nil {
		t.Fatalf("SetMetric: %v", err)
	}
	if _, err := d.ToggleTag(certificate.TagGroupArrival, "Scuffs"); err != nil {
		t.Fatalf("ToggleTag: %v", err)
	}
	return d
}

func exerciseRoundTrip(t *testing.T, store draftStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "sess-1"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}

	d := sampleDraft(t)
	if err := store.Save(ctx, "sess-1", d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Customer.Name != "Marta" || got.Reading(certificate.DimensionColor).Before != "4" {
		t.Fatalf("unexpected draft %+v", got)
	}
	if got.Reading(certificate.DimensionOverall).Before != "4" {
		t.Fatalf("overall not persisted: %+v", got.Reading(certificate.DimensionOverall))
	}
	if len(got.Tags.ArrivalIssues) != 1 || got.Tags.ArrivalIssues[0] != "Scuffs" {
		t.Fatalf("tags not persisted: %+v", got.Tags)
	}
	if got.Tags.CarePlan == nil {
		t.Fatalf("expected normalized empty slices")
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "sess-1"); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	exerciseRoundTrip(t, NewMemoryStore())
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	exerciseRoundTrip(t, store)
}

func TestSingleFileStoreIgnoresKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "draft.json")
	store := NewSingleFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, "a", sampleDraft(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "b")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Customer.Name != "Marta" {
		t.Fatalf("unexpected draft %+v", got.Customer)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("draft file missing: %v", err)
	}
}

func TestCorruptPayloads(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	mem.Put("sess-x", []byte("{not json"))
	if _, err := mem.Load(ctx, "sess-x"); !errors.Is(err, ErrCorruptDraft) {
		t.Fatalf("expected ErrCorruptDraft, got %v", err)
	}
	mem.Put("sess-y", []byte(`{"version":1}`))
	if _, err := mem.Load(ctx, "sess-y"); !errors.Is(err, ErrCorruptDraft) {
		t.Fatalf("expected ErrCorruptDraft for missing draft, got %v", err)
	}
	mem.Put("sess-v", []byte(`{"version":2,"saved_at":"2026-03-14T09:26:53Z","draft":{"customer":{"name":"Marta"}}}`))
	if _, err := mem.Load(ctx, "sess-v"); !errors.Is(err, ErrCorruptDraft) {
		t.Fatalf("expected ErrCorruptDraft for unknown version, got %v", err)
	}
	mem.Put("sess-bare", []byte(`{"customer":{"name":"Marta"}}`))
	if _, err := mem.Load(ctx, "sess-bare"); !errors.Is(err, ErrCorruptDraft) {
		t.Fatalf("expected ErrCorruptDraft for bare draft, got %v", err)
	}

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sess-z.json"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(ctx, "sess-z"); !errors.Is(err, ErrCorruptDraft) {
		t.Fatalf("expected ErrCorruptDraft, got %v", err)
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		if err := store.Save(context.Background(), key, certificate.NewDraft()); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestFileStorePrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"old", "fresh"} {
		if err := store.Save(ctx, key, certificate.NewDraft()); err != nil {
			t.Fatalf("Save %s: %v", key, err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.json"), past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Load(ctx, "fresh"); err != nil {
		t.Fatalf("fresh draft should survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestJanitorSweep(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()
	if err := store.Save(ctx, "old", certificate.NewDraft()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.now = func() time.Time { return base.Add(20 * 24 * time.Hour) }
	if err := store.Save(ctx, "recent", certificate.NewDraft()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	janitor := &Janitor{Pruner: store, TTL: 14 * 24 * time.Hour, Now: func() time.Time { return base.Add(21 * 24 * time.Hour) }}
	removed, err := janitor.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 || store.Len() != 1 {
		t.Fatalf("expected one draft pruned, removed=%d len=%d", removed, store.Len())
	}

	if _, err := (&Janitor{}).Sweep(ctx); err == nil {
		t.Fatalf("expected error without pruner")
	}
}

func TestJanitorRejectsBadSchedule(t *testing.T) {
	janitor := &Janitor{Pruner: NewMemoryStore(), TTL: time.Hour}
	if _, err := janitor.Start(context.Background(), "not a schedule"); err == nil {
		t.Fatalf("expected schedule error")
	}
	stop, err := janitor.Start(context.Background(), "*/5 * * * *")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stop()
	stop()
}
