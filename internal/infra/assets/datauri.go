package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotDataURI       = errors.New("not a data URI")
	ErrInvalidImageData = errors.New("data URI is not an image")
)

// ReadDataURI encodes raw bytes as a base64 data URI. The MIME type is
// sniffed from the content; declared is used only when sniffing finds
// nothing more specific than application/octet-stream.
func ReadDataURI(data []byte, declared string) string {
	mime := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(mime, ";"); ok {
		mime = base
	}
	if mime == "application/octet-stream" || mime == "text/plain" {
		if d := strings.TrimSpace(declared); d != "" {
			mime = d
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI into its MIME type and payload.
func DecodeDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}

	params := strings.Split(header, ";")
	mime = strings.TrimSpace(params[0])
	if mime == "" {
		mime = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if !isBase64 {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode data URI: %w", err)
		}
		return mime, []byte(unescaped), nil
	}
	decoded, err := decodeBase64(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mime, decoded, nil
}

// IsImageDataURI reports whether s starts with "data:image", the only check
// applied to pasted base64 logos.
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image")
}

func decodeBase64(value string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(value)
}
