package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Info("skipped")
	logger.WithContext(WithSessionID(context.Background(), "sess-1")).Warn("store unavailable", "operation", "save")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, `"session_id":"sess-1"`)
	assert.Contains(t, out, `"operation":"save"`)
}

func TestDisabledCollectorIsNoop(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{Enabled: false})
	require.NoError(t, err)

	m.RecordExport(context.Background(), "png", true, time.Second)
	m.RecordLogoEmbed(context.Background(), "url", false)
	require.NoError(t, m.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var nilCollector *MetricsCollector
	nilCollector.RecordMutation(context.Background(), "set_metric")
}

func TestCollectorExposesExports(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	defer func() { _ = m.Shutdown(context.Background()) }()

	ctx := context.Background()
	m.RecordExport(ctx, "pdf", true, 1500*time.Millisecond)
	m.RecordExport(ctx, "pdf", false, 200*time.Millisecond)
	m.RecordLogoEmbed(ctx, "url", true)
	m.IncrementActiveSessions(ctx)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "restoree_certificate_exports"), text)
	assert.Contains(t, text, `format="pdf"`)
	assert.Contains(t, text, "restoree_logo_embeds")
}
