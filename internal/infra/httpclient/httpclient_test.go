package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"
)

func TestReadAllWithLimitWithinLimit(t *testing.T) {
	payload := []byte("logo")
	got, err := ReadAllWithLimit(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestReadAllWithLimitTooLarge(t *testing.T) {
	_, err := ReadAllWithLimit(bytes.NewReader([]byte("oversized")), 3)
	if !IsResponseTooLarge(err) {
		t.Fatalf("expected ResponseTooLargeError, got %v", err)
	}
}

func TestReadAllWithLimitUnlimited(t *testing.T) {
	got, err := ReadAllWithLimit(bytes.NewReader([]byte("logo")), 0)
	if err != nil || string(got) != "logo" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}

func TestClientSetsUserAgent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := New(time.Second, nil, AllowPrivateNetworks())
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if seen != userAgent {
		t.Fatalf("user agent = %q", seen)
	}
}

func TestClientRefusesLoopbackByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "aws-secret-access-key=internal")
	}))
	defer srv.Close()

	resp, err := New(time.Second, nil).Get(srv.URL + "/latest/meta-data")
	if err == nil {
		_ = resp.Body.Close()
		t.Fatalf("expected loopback request to be refused")
	}
	if !errors.Is(err, ErrBlockedAddress) {
		t.Fatalf("expected ErrBlockedAddress, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server was reached %d times", hits.Load())
	}
}

type redirectingTransport struct {
	host   string
	target string
	next   http.RoundTripper
}

func (t *redirectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.host {
		return t.next.RoundTrip(req)
	}
	return &http.Response{
		StatusCode: http.StatusFound,
		Header:     http.Header{"Location": []string{t.target}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Request:    req,
	}, nil
}

func TestClientRefusesRedirectToLoopback(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "secret")
	}))
	defer internal.Close()

	client := &http.Client{
		Timeout: time.Second,
		Transport: &redirectingTransport{
			host:   "logos.example.com",
			target: internal.URL + "/latest/meta-data",
			next:   GuardedTransport(),
		},
	}
	resp, err := client.Get("http://logos.example.com/logo.png")
	if err == nil {
		_ = resp.Body.Close()
		t.Fatalf("expected redirect to loopback to be refused")
	}
	if !errors.Is(err, ErrBlockedAddress) {
		t.Fatalf("expected ErrBlockedAddress, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("internal server was reached")
	}
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::6810:85e5", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.0.0.8", false},
		{"172.16.4.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"::", false},
		{"100.100.100.200", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		if got := PublicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("PublicAddr(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}
