package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"o3enc/internal/config"
	"o3enc/internal/logging"
	"o3enc/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, closeLog, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")
	if err := closeLog(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "o3enc.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected message in log file, got %q", data)
	}
}

func TestLogFileTruncatedPerRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "o3enc.log")
	for _, msg := range []string{"first run", "second run"} {
		logger, closeLog, err := logging.New(logging.Options{Console: &bytes.Buffer{}, FilePath: path})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info(msg)
		_ = closeLog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "first run") {
		t.Fatalf("expected previous run truncated, got %q", data)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "1b2c3d4e-aaaa-bbbb-cccc-dddddddddddd")
	component := logging.NewComponentLogger(logger, "encoding")
	logging.WithContext(ctx, component).Info("pass complete", logging.String("preset", "720p"), logging.Int("pass", 1))

	line := buf.String()
	for _, fragment := range []string{" INFO encoding: pass complete", "run_id=1b2c3d4e ", "preset=720p", "pass=1"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logging.WarnWithContext(logger, "cleanup incomplete", "cleanup_leftovers")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info suppressed, got %q", out)
	}
	if !strings.Contains(out, "event_type=cleanup_leftovers") || !strings.Contains(out, "impact=") {
		t.Fatalf("expected warning context fields, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithPreset(context.Background(), "1080p")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "loudness")).Info("measured")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "info" || payload["msg"] != "measured" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["component"] != "loudness" || payload["preset"] != "1080p" {
		t.Fatalf("expected component and preset fields, got %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml", Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("discarded")
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
}
