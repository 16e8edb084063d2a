package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		log := New(config.LoggingConfig{Level: "debug", Format: format, Output: "stderr"}, "test")
		if log == nil {
			t.Fatalf("New() returned nil for format %q", format)
		}
		if !log.Enabled(context.Background(), slog.LevelDebug) {
			t.Errorf("format %q: debug level should be enabled", format)
		}
	}
}

func TestWith_ReturnsDerivedLogger(t *testing.T) {
	log := Default()
	derived := log.With("component", "test")
	if derived == nil || derived.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if derived == log {
		t.Error("With() should return a new Logger instance")
	}
}
