package certification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restoree/internal/infra/render"
)

// ExportFormat selects an export artifact.
type ExportFormat string

const (
	FormatPNG   ExportFormat = "png"
	FormatPDF   ExportFormat = "pdf"
	FormatPrint ExportFormat = "print"
)

var (
	ErrUnknownFormat  = errors.New("unknown export format")
	ErrNoRasterizer   = errors.New("no rasterizer configured")
	ErrCaptureFailure = errors.New("capture failed")
)

// ParseFormat resolves a format name.
func ParseFormat(name string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatPNG, FormatPDF, FormatPrint:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ExportResult is the outcome of one export. Data is set only on success.
type ExportResult struct {
	Format        ExportFormat
	Filename      string
	ContentType   string
	Data          []byte
	CertificateID string
	Err           error
}

// OK reports whether the export produced an artifact.
func (r ExportResult) OK() bool {
	return r.Err == nil && len(r.Data) > 0
}

// Preview renders the standalone certificate page for the current draft.
func (s *Service) Preview(ctx context.Context, key string) (string, error) {
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return "", err
	}
	view := render.NewView(sess.draft, s.now())
	sess.mu.Unlock()
	return render.CaptureDocument(view), nil
}

// Export renders and rasterizes the draft. The certificate ID is assigned
// and persisted before anything is captured. Rendering failures, including
// panics in the rasterizer, come back in ExportResult.Err; the returned
// error covers only bad input such as an invalid session or format.
func (s *Service) Export(ctx context.Context, key string, format ExportFormat) (ExportResult, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return ExportResult{}, err
	}
	now := s.now()
	sess, err := s.acquire(ctx, key)
	if err != nil {
		return ExportResult{}, err
	}
	id, assigned := sess.draft.EnsureCertificateID(s.ids)
	if assigned {
		s.log(sess, "Certificate ID assigned "+id)
		s.commit(ctx, sess, "certificate_id", true)
	}
	view := render.NewView(sess.draft, now)
	activity := append([]string{}, sess.activity...)
	sess.mu.Unlock()

	result := ExportResult{Format: format, CertificateID: id}
	started := time.Now()
	result.Data, result.Err = s.rasterize(ctx, format, view, activity)
	s.metrics.RecordExport(ctx, string(format), result.Err == nil, time.Since(started))

	switch format {
	case FormatPNG:
		result.Filename, result.ContentType = render.PNGFilename(now), "image/png"
	case FormatPDF:
		result.Filename, result.ContentType = render.FlatPDFFilename(now), "application/pdf"
	case FormatPrint:
		result.Filename, result.ContentType = render.PrintPDFFilename(now), "application/pdf"
	}

	sess.mu.Lock()
	if result.Err != nil {
		result.Data = nil
		s.logger.Warn("Export %s for %s failed: %v", format, key, result.Err)
		s.log(sess, "Export failed: "+result.Err.Error())
	} else {
		s.log(sess, fmt.Sprintf("Exported %s", result.Filename))
	}
	s.commit(ctx, sess, "export", false)
	sess.mu.Unlock()
	return result, nil
}

func (s *Service) rasterize(ctx context.Context, format ExportFormat, view render.View, activity []string) (data []byte, err error) {
	if s.rasterizer == nil {
		return nil, ErrNoRasterizer
	}
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrCaptureFailure, r)
		}
	}()

	switch format {
	case FormatPrint:
		data, err = s.rasterizer.PrintPDF(ctx, render.PrintDocument(view, activity))
	case FormatPDF:
		var png []byte
		png, err = s.rasterizer.Capture(ctx, render.CaptureDocument(view))
		if err == nil {
			data, err = render.ComposeFlatPDF(png, "Certificate "+view.Draft.CertificateID)
		}
	default:
		data, err = s.rasterizer.Capture(ctx, render.CaptureDocument(view))
	}
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("%w: empty artifact", ErrCaptureFailure)
	}
	return data, err
}
