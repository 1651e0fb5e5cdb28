package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector records certificate pipeline metrics. A zero value is a
// valid disabled collector; every Record method is a no-op on it.
type MetricsCollector struct {
	registry *promclient.Registry
	provider *sdkmetric.MeterProvider

	exports        metric.Int64Counter
	exportDuration metric.Float64Histogram
	logoEmbeds     metric.Int64Counter
	mutations      metric.Int64Counter
	storeFailures  metric.Int64Counter
	sessionsActive metric.Int64UpDownCounter
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewMetricsCollector creates a collector backed by its own Prometheus
// registry so tests and multiple servers never collide on the global one.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("restoree")

	exports, err := meter.Int64Counter(
		"restoree.certificate.exports",
		metric.WithDescription("Certificate export attempts by format and outcome"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exports counter: %w", err)
	}

	exportDuration, err := meter.Float64Histogram(
		"restoree.certificate.export.duration",
		metric.WithDescription("Time spent rasterizing and composing an export"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create export_duration histogram: %w", err)
	}

	logoEmbeds, err := meter.Int64Counter(
		"restoree.logo.embeds",
		metric.WithDescription("Logo embedding attempts by source and outcome"),
		metric.WithUnit("{embed}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logo_embeds counter: %w", err)
	}

	mutations, err := meter.Int64Counter(
		"restoree.draft.mutations",
		metric.WithDescription("Draft edits by operation"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft_mutations counter: %w", err)
	}

	storeFailures, err := meter.Int64Counter(
		"restoree.draft.store.failures",
		metric.WithDescription("Draft store operations that failed and were ignored"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store_failures counter: %w", err)
	}

	sessionsActive, err := meter.Int64UpDownCounter(
		"restoree.sessions.active",
		metric.WithDescription("Draft sessions currently held in memory"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions_active gauge: %w", err)
	}

	return &MetricsCollector{
		registry:       registry,
		provider:       provider,
		exports:        exports,
		exportDuration: exportDuration,
		logoEmbeds:     logoEmbeds,
		mutations:      mutations,
		storeFailures:  storeFailures,
		sessionsActive: sessionsActive,
	}, nil
}

// Handler serves the collector's registry in Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordExport records one export attempt.
func (m *MetricsCollector) RecordExport(ctx context.Context, format string, ok bool, duration time.Duration) {
	if m == nil || m.exports == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("format", format),
		attribute.String("status", statusLabel(ok)),
	}
	m.exports.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.exportDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("format", format)))
}

// RecordLogoEmbed records one logo embedding attempt.
func (m *MetricsCollector) RecordLogoEmbed(ctx context.Context, source string, ok bool) {
	if m == nil || m.logoEmbeds == nil {
		return
	}
	m.logoEmbeds.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", statusLabel(ok)),
	))
}

// RecordMutation records one draft edit.
func (m *MetricsCollector) RecordMutation(ctx context.Context, operation string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordStoreFailure records a swallowed persistence error.
func (m *MetricsCollector) RecordStoreFailure(ctx context.Context, operation string) {
	if m == nil || m.storeFailures == nil {
		return
	}
	m.storeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// IncrementActiveSessions increments the active sessions counter
func (m *MetricsCollector) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.sessionsActive == nil {
		return
	}
	m.sessionsActive.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter
func (m *MetricsCollector) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.sessionsActive == nil {
		return
	}
	m.sessionsActive.Add(ctx, -1)
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
