package certification

import (
	"context"

	"restoree/internal/domain/certificate"
	"restoree/internal/infra/assets"
)

// DraftStore persists drafts per session key. ErrDraftNotFound and
// ErrCorruptDraft from draftstore both mean "start empty".
type DraftStore interface {
	Load(ctx context.Context, key string) (*certificate.Draft, error)
	Save(ctx context.Context, key string, d *certificate.Draft) error
	Delete(ctx context.Context, key string) error
}

// Rasterizer turns rendered documents into export artifacts.
type Rasterizer interface {
	// Capture returns a PNG of the certificate element.
	Capture(ctx context.Context, doc string) ([]byte, error)
	// PrintPDF prints the full page document with print styles applied.
	PrintPDF(ctx context.Context, doc string) ([]byte, error)
}

// LogoEmbedder produces flattened logo data URIs.
type LogoEmbedder interface {
	FromURL(ctx context.Context, rawURL string) (string, error)
	FromUpload(data []byte, contentType string) string
	FromBase64(text string) (string, error)
}

// PhotoReader reads selected photo files as ordered data URIs.
type PhotoReader func(ctx context.Context, files []assets.PhotoFile, maxBytes int64) ([]string, error)
