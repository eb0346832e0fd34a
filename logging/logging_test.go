package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, closer := New(Options{Level: "warn", Console: &buf})
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "sku", "P001")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "sku=P001") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestNew_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "inventory.log")
	log, closer := New(Options{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 3, Console: &buf})

	log.Info("product added", "sku", "P001")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if !strings.Contains(string(b), "product added") {
		t.Fatalf("log file missing entry: %q", string(b))
	}
	if !strings.Contains(buf.String(), "product added") {
		t.Fatalf("console missing entry: %q", buf.String())
	}
}
