package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

// A4 portrait in points, matching the flat-PDF page geometry.
const (
	A4WidthPt    = 595.28
	A4HeightPt   = 841.89
	PageMarginPt = 20.0
	JPEGQuality  = 95
)

// Placement is where the raster lands on the page, in points.
type Placement struct {
	X, Y, W, H float64
}

// FitToPage fits an image of the given pixel size inside the A4 page minus
// margins, preserving aspect ratio. The image is centred horizontally and
// pinned to the top margin.
func FitToPage(imgW, imgH int) Placement {
	if imgW <= 0 || imgH <= 0 {
		return Placement{X: PageMarginPt, Y: PageMarginPt}
	}
	ratio := float64(imgW) / float64(imgH)
	w := A4WidthPt - 2*PageMarginPt
	h := w / ratio
	if maxH := A4HeightPt - 2*PageMarginPt; h > maxH {
		h = maxH
		w = h * ratio
	}
	return Placement{X: (A4WidthPt - w) / 2, Y: PageMarginPt, W: w, H: h}
}

// ComposeFlatPDF places a PNG raster on a single A4 page as a JPEG at
// quality 95.
func ComposeFlatPDF(pngData []byte, title string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}
	var jpeg bytes.Buffer
	if err := imaging.Encode(&jpeg, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	bounds := img.Bounds()
	place := FitToPage(bounds.Dx(), bounds.Dy())

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("restoree", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("certificate", opts, &jpeg)
	pdf.ImageOptions("certificate", place.X, place.Y, place.W, place.H, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
