package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Fallback(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpmx.log")
	var buf bytes.Buffer

	log, closer, err := New(Config{Level: "debug", File: path}, &buf)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	log.Debug("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected record in file, got %q", data)
	}
	if buf.Len() != 0 {
		t.Errorf("fallback writer must stay unused, got %q", buf.String())
	}
}

func TestNew_NilFallback(t *testing.T) {
	log, _, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	log.Info("discarded")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
