package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Debug(format string, args ...any) { r.lines = append(r.lines, "debug:"+format) }
func (r *recordingLogger) Info(format string, args ...any)  { r.lines = append(r.lines, "info:"+format) }
func (r *recordingLogger) Warn(format string, args ...any)  { r.lines = append(r.lines, "warn:"+format) }
func (r *recordingLogger) Error(format string, args ...any) { r.lines = append(r.lines, "error:"+format) }

func TestOrNopHandlesTypedNil(t *testing.T) {
	var typed *recordingLogger
	if !IsNil(typed) {
		t.Fatalf("expected typed nil to be detected")
	}
	OrNop(typed).Info("ignored")
}

func TestSlogLoggerFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	NewSlogLogger("Bootstrap", nil).Warn("storage degraded: %s", "postgres")
	if !strings.Contains(buf.String(), "storage degraded: postgres") || !strings.Contains(buf.String(), "component=Bootstrap") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestSlogLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := NewSlogLogger("certificate", base)

	logger.Debug("hidden %d", 1)
	logger.Info("exported %s", "png")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %s", out)
	}
	if !strings.Contains(out, "exported png") || !strings.Contains(out, "component=certificate") {
		t.Fatalf("unexpected output: %s", out)
	}
}
