package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"restoree/internal/shared/logging"
)

const userAgent = "restoree-certificate/1.0"

// ErrBlockedAddress is returned when a request would connect to a loopback,
// private, link-local or unspecified address.
var ErrBlockedAddress = errors.New("destination address not allowed")

// Option customises New.
type Option func(*options)

type options struct {
	allowPrivate bool
}

// AllowPrivateNetworks disables the destination address guard. Intended for
// local development and tests against loopback servers.
func AllowPrivateNetworks() Option {
	return func(o *options) { o.allowPrivate = true }
}

// New returns an http.Client configured for outbound asset fetches.
//
// URLs come from users, so by default every connection, including those made
// while following redirects, is checked against ErrBlockedAddress at dial
// time and no proxy is used. Every request is logged at debug level with its
// status and latency.
func New(timeout time.Duration, logger logging.Logger, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	transport := Transport()
	if !o.allowPrivate {
		transport = GuardedTransport()
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{base: transport, logger: logging.OrNop(logger)},
	}
}

// Transport returns a clone of http.DefaultTransport.
func Transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	return base.Clone()
}

// GuardedTransport is Transport without a proxy and with a dialer that
// refuses non-public destinations.
func GuardedTransport() *http.Transport {
	t := Transport()
	t.Proxy = nil
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guardControl,
	}
	t.DialContext = dialer.DialContext
	return t
}

func guardControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	if !PublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
	}
	return nil
}

// PublicAddr reports whether addr is routable on the public internet.
func PublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified():
		return false
	}
	// Shared address space (RFC 6598); some clouds serve metadata from it.
	if addr.Is4() && cgnat.Contains(addr) {
		return false
	}
	return true
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

type loggingTransport struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("%s %s failed after %s: %v", req.Method, req.URL.Redacted(), time.Since(start), err)
		return nil, err
	}
	t.logger.Debug("%s %s -> %d in %s", req.Method, req.URL.Redacted(), resp.StatusCode, time.Since(start))
	return resp, nil
}

// ResponseTooLargeError reports that the response body exceeded the limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether the error indicates a response limit violation.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit reads r up to limit bytes. If limit <= 0, it behaves like
// io.ReadAll.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
