package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	if entry["msg"] != "test message" || entry["key"] != "value" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetup_FileAndVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cove.log")
	var stderr bytes.Buffer
	l, closer, err := Setup(path, "info", true, &stderr)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	l.Debug("only on stderr")
	l.Info("both", "n", 1)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], `"msg":"both"`) {
		t.Errorf("log file = %q", data)
	}
	if !strings.Contains(stderr.String(), "only on stderr") || !strings.Contains(stderr.String(), "both") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestSetup_Quiet(t *testing.T) {
	l, closer, err := Setup("", "info", false, nil)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	defer closer.Close() //nolint:errcheck
	if l.Enabled(t.Context(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
