package assets

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Fallback canvas size for images that report no dimensions.
const (
	DefaultFlattenWidth  = 800
	DefaultFlattenHeight = 400
)

// Flatten redraws an image data URI onto an opaque white canvas at its
// natural size and returns it as a PNG data URI. Any failure returns src
// unchanged so callers never lose the original.
func Flatten(src string) string {
	_, data, err := DecodeDataURI(src)
	if err != nil {
		return src
	}
	flat, err := FlattenBytes(data)
	if err != nil {
		return src
	}
	return flat
}

// FlattenBytes decodes raw image bytes and returns the flattened PNG data URI.
func FlattenBytes(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		w, h = DefaultFlattenWidth, DefaultFlattenHeight
	}

	canvas := imaging.New(w, h, color.White)
	canvas = imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
