package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"o3enc/internal/config"
	"o3enc/internal/services"
	"o3enc/internal/testsupport"
)

const cliPresets = `preset_start:

[fast]
encoder = libx264
container = mkv
pixfmt = yuv420p
options = -preset fast -crf 20
`

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestPresetsCommandListsPresets(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPresets(cliPresets))
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path, "presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	for _, want := range []string{"fast", "libx264", "mkv", "I=-18"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No encodes recorded") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHistoryCommandDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistoryDisabled())
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInitFlagRunsChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPresets(cliPresets), testsupport.WithEngine(testsupport.Engine{}))
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path, "--init")
	if err != nil {
		t.Fatalf("--init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Initialization complete") || !strings.Contains(out, "Loaded 1 presets") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRootWithoutInputFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPresets(cliPresets))
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path)
	if !errors.Is(err, errInputRequired) {
		t.Fatalf("expected missing input error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected usage text, got:\n%s", out)
	}
}

func TestInitFlagMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPresets(cliPresets))
	cfg.Tools.FFmpeg = filepath.Join(testsupport.BaseDir(cfg), "missing-ffmpeg")
	cfg.Tools.FFprobe = filepath.Join(testsupport.BaseDir(cfg), "missing-ffprobe")
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, "", "--config", path, "--init")
	if err == nil {
		t.Fatalf("expected failure, output:\n%s", out)
	}
	if !strings.Contains(out, "FAILED") {
		t.Fatalf("expected failed checks in output:\n%s", out)
	}
}

func TestSessionReadsAnswersFromStdin(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPresets(cliPresets), testsupport.WithEngine(testsupport.Engine{}))
	path := writeTestConfig(t, cfg)
	input := filepath.Join(testsupport.BaseDir(cfg), "clip.mkv")
	testsupport.WriteFile(t, input, 512)

	out, _, err := runCLI(t, "1\nQ\nY\nY\n", "--config", path, input)
	if err != nil {
		t.Fatalf("session: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "clip_fast_v00.mkv")); err != nil {
		t.Fatalf("expected output file: %v", err)
	}

	out, _, err = runCLI(t, "", "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "succeeded") || !strings.Contains(out, "clip_fast_v00.mkv") {
		t.Fatalf("expected recorded encode:\n%s", out)
	}
}

func TestLogsCommandShowsLastRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	if err := os.WriteFile(cfg.LogFilePath(), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, "", "--config", path, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
