package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/pkg/logger"
)

func newBufferLogger(t *testing.T, format string) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	return logger.NewLogger(&logger.LogConfig{
		Level:       "debug",
		Format:      format,
		Writer:      buf,
		ServiceName: "inventory-test",
	}), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestLogger_JSONFields(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	l.Info("product inserted", slog.Int64("id", 7))

	entry := decodeLine(t, buf)
	assert.Equal(t, "product inserted", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "inventory-test", entry["service"])
	assert.Equal(t, float64(7), entry["id"])
}

func TestLogger_Sanitization(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{
			name: "blacklisted_key",
			attr: slog.String("db_password", "hunter2"),
			key:  "db_password",
			want: "***REDACTED***",
		},
		{
			name: "phone_keeps_last_two_digits",
			attr: slog.String("supplier_phone", "0612-345678"),
			key:  "supplier_phone",
			want: "****-****78",
		},
		{
			name: "email_in_value",
			attr: slog.String("contact", "write to ops@example.com"),
			key:  "contact",
			want: "write to ***EMAIL***",
		},
		{
			name: "timestamps_untouched",
			attr: slog.String("created_at", "2024-01-02T03:04:05Z"),
			key:  "created_at",
			want: "2024-01-02T03:04:05Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferLogger(t, "json")
			l.Info("event", tt.attr)

			entry := decodeLine(t, buf)
			assert.Equal(t, tt.want, entry[tt.key])
		})
	}
}

func TestLogger_MessageRedaction(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	l.Warn("connect failed token=abc123")

	entry := decodeLine(t, buf)
	assert.Equal(t, "connect failed token=***REDACTED***", entry["msg"])
}

func TestLogger_ContextValues(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	ctx := context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, logger.ContextKeyMethod, "POST")
	ctx = context.WithValue(ctx, logger.ContextKeyStatusCode, 201)

	l.InfoContext(ctx, "request completed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, float64(201), entry["status_code"])
}

func TestLogger_WithContext(t *testing.T) {
	l, buf := newBufferLogger(t, "json")
	ctx := context.WithValue(context.Background(), logger.ContextKeyPath, "/v1/sales")

	l.WithContext(ctx).Info("routed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "/v1/sales", entry["path"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logger.NewLogger(&logger.LogConfig{Level: "warn", Format: "json", Writer: buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_PrettyText(t *testing.T) {
	l, buf := newBufferLogger(t, "text")

	l.Info("sale recorded", slog.Int64("sale_id", 3))

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "sale recorded")
	assert.Contains(t, out, "sale_id=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "********78", logger.MaskPhone("0612345678"))
	assert.Equal(t, "12", logger.MaskPhone("12"))
	assert.Equal(t, "", logger.MaskPhone(""))
}
