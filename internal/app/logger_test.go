package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/heartmarshall/json-auditor/internal/config"
	"github.com/heartmarshall/json-auditor/pkg/ctxutil"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("test message", slog.String("k", "v"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("JSON handler should produce valid JSON: %v", err)
	}
	if m["msg"] != "test message" || m["k"] != "v" {
		t.Errorf("unexpected record: %v", m)
	}
}

func TestNewLogger_TextFormatIncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("source test")

	if !strings.Contains(buf.String(), "source=") {
		t.Error("text format should include source information")
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("warn should be logged at warn level")
	}
}

func TestNewLogger_ContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf).With("service", "audit")

	ctx := ctxutil.WithRequestID(context.Background(), "req-7")
	ctx = ctxutil.WithPartition(ctx, "0/order-1")
	logger.InfoContext(ctx, "submitted")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["request_id"] != "req-7" {
		t.Errorf("request_id = %v, want req-7", m["request_id"])
	}
	if m["partition"] != "0/order-1" {
		t.Errorf("partition = %v, want 0/order-1", m["partition"])
	}
	if m["service"] != "audit" {
		t.Errorf("service = %v, want audit", m["service"])
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"})
	if slog.Default().Handler() != logger.Handler() {
		t.Error("NewLogger should set the default logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
