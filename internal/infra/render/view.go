package render

import (
	"strconv"
	"time"

	"restoree/internal/domain/certificate"
)

// CaptureSelector is the element rasterized for PNG and flat PDF exports.
const CaptureSelector = "#certificate"

// View is the materialized certificate: a frozen copy of the draft plus its
// derived aggregates at one instant.
type View struct {
	Draft       *certificate.Draft
	Summary     certificate.Summary
	GeneratedAt time.Time
	VerifyQR    string
}

// NewView snapshots d. The draft is cloned so later edits cannot leak into
// an export that is already rendering.
func NewView(d *certificate.Draft, now time.Time) View {
	snapshot := d.Clone()
	if snapshot == nil {
		snapshot = certificate.NewDraft()
	}
	return View{
		Draft:       snapshot,
		Summary:     certificate.Summarize(snapshot),
		GeneratedAt: now,
		VerifyQR:    VerifyQR(snapshot.VerifyURL),
	}
}

// GeneratedLabel formats the generation time as "2006-01-02 15:04:05 UTC".
func (v View) GeneratedLabel() string {
	return v.GeneratedAt.UTC().Format("2006-01-02 15:04:05") + " UTC"
}

// Export filenames carry the epoch milliseconds of the export action.
func PNGFilename(t time.Time) string      { return exportName("certificate_", t, ".png") }
func FlatPDFFilename(t time.Time) string  { return exportName("certificate_flat_", t, ".pdf") }
func PrintPDFFilename(t time.Time) string { return exportName("certificate_print_", t, ".pdf") }

func exportName(prefix string, t time.Time, ext string) string {
	return prefix + strconv.FormatInt(t.UnixMilli(), 10) + ext
}
