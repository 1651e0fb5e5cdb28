package certificate

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var certificateIDPattern = regexp.MustCompile(`^RST-[0-9A-Z]{4}-\d{4}$`)

// IDGenerator produces certificate IDs of the form RST-XXXX-NNNN, where the
// trailing digits are the last four of the epoch milliseconds.
type IDGenerator struct {
	Now  func() time.Time
	IntN func(n int) int
}

// NewIDGenerator returns a generator backed by the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{Now: time.Now, IntN: rand.IntN}
}

// Next returns a fresh certificate ID.
func (g *IDGenerator) Next() string {
	now, intn := time.Now, rand.IntN
	if g != nil && g.Now != nil {
		now = g.Now
	}
	if g != nil && g.IntN != nil {
		intn = g.IntN
	}

	var b strings.Builder
	b.WriteString("RST-")
	for i := 0; i < 4; i++ {
		b.WriteByte(idAlphabet[intn(len(idAlphabet))])
	}
	b.WriteByte('-')
	ms := strconv.FormatInt(now().UnixMilli(), 10)
	if len(ms) < 4 {
		ms = strings.Repeat("0", 4-len(ms)) + ms
	}
	b.WriteString(ms[len(ms)-4:])
	return b.String()
}

// ValidCertificateID reports whether id has the certificate ID shape.
func ValidCertificateID(id string) bool {
	return certificateIDPattern.MatchString(id)
}

// EnsureCertificateID assigns an ID when the draft has none. It reports
// whether a new one was assigned.
func (d *Draft) EnsureCertificateID(gen *IDGenerator) (string, bool) {
	if d.CertificateID != "" {
		return d.CertificateID, false
	}
	d.CertificateID = gen.Next()
	return d.CertificateID, true
}

// RegenerateCertificateID replaces the ID unconditionally.
func (d *Draft) RegenerateCertificateID(gen *IDGenerator) string {
	d.CertificateID = gen.Next()
	return d.CertificateID
}
