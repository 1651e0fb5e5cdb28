package render

import (
	"encoding/base64"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 168

// VerifyQR renders url as a PNG QR code data URI, or "" when url is blank or
// cannot be encoded.
func VerifyQR(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
