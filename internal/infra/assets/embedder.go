package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"restoree/internal/infra/httpclient"
	sharederrors "restoree/internal/shared/errors"
	"restoree/internal/shared/logging"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyURL      = errors.New("no URL")
	ErrInvalidBase64 = errors.New("invalid base64")
	ErrNotImage      = errors.New("not an image")
	ErrBlockedURL    = errors.New("address not allowed")
)

// EmbedderConfig bounds remote logo fetches.
type EmbedderConfig struct {
	MaxBytes   int64
	MaxRetries int
}

// Embedder turns logo sources into self-contained, flattened data URIs.
type Embedder struct {
	client       *http.Client
	maxBytes     int64
	maxRetries   int
	buildBackoff func() backoff.BackOff
	logger       logging.Logger
}

// NewEmbedder builds an embedder over client. A nil client gets a default
// bounded client that refuses non-public destinations.
func NewEmbedder(client *http.Client, cfg EmbedderConfig, logger logging.Logger) *Embedder {
	logger = logging.OrNop(logger)
	if client == nil {
		client = httpclient.New(15*time.Second, logger)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Embedder{
		client:     client,
		maxBytes:   cfg.MaxBytes,
		maxRetries: cfg.MaxRetries,
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
		logger: logger,
	}
}

// WithBackoff replaces the retry schedule, mainly for tests.
func (e *Embedder) WithBackoff(factory func() backoff.BackOff) *Embedder {
	if factory != nil {
		e.buildBackoff = factory
	}
	return e
}

// FromURL downloads rawURL and returns the flattened logo. Transient failures
// (network errors, 5xx, 429) are retried; a non-2xx response fails with
// "HTTP <code>" and a body that does not sniff as an image fails with
// ErrNotImage.
func (e *Embedder) FromURL(ctx context.Context, rawURL string) (string, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return "", ErrEmptyURL
	}

	var dataURI string
	attempt := 0
	operation := func() error {
		attempt++
		uri, err := e.fetch(ctx, target)
		if err != nil {
			if sharederrors.IsPermanent(err) || ctx.Err() != nil || !sharederrors.IsTransient(err) {
				return backoff.Permanent(err)
			}
			e.logger.Warn("logo fetch attempt %d failed: %v", attempt, err)
			return err
		}
		dataURI = uri
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(e.buildBackoff(), uint64(e.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return Flatten(dataURI), nil
}

func (e *Embedder) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", sharederrors.NewPermanentError(err, err.Error())
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, httpclient.ErrBlockedAddress) {
			e.logger.Warn("refused logo fetch from %s: %v", req.URL.Redacted(), err)
			return "", sharederrors.NewPermanentError(ErrBlockedURL, ErrBlockedURL.Error())
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", sharederrors.ClassifyStatus(resp.StatusCode)
	}
	body, err := httpclient.ReadAllWithLimit(resp.Body, e.maxBytes)
	if err != nil {
		if httpclient.IsResponseTooLarge(err) {
			return "", sharederrors.NewPermanentError(err, err.Error())
		}
		return "", sharederrors.NewTransientError(err, fmt.Sprintf("read logo body: %v", err))
	}
	if !strings.HasPrefix(mimetype.Detect(body).String(), "image/") {
		return "", sharederrors.NewPermanentError(ErrNotImage, ErrNotImage.Error())
	}
	return ReadDataURI(body, resp.Header.Get("Content-Type")), nil
}

// FromUpload flattens uploaded logo bytes.
func (e *Embedder) FromUpload(data []byte, contentType string) string {
	return Flatten(ReadDataURI(data, contentType))
}

// FromBase64 accepts pasted text only when it starts with "data:image".
func (e *Embedder) FromBase64(text string) (string, error) {
	if !IsImageDataURI(text) {
		return "", ErrInvalidBase64
	}
	return Flatten(text), nil
}
