package presets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"o3enc/internal/presets"
	"o3enc/internal/services"
	"o3enc/internal/testsupport"
)

const sample = `Anything up here is ignored, including [brackets]
and key = value lines.
preset_start:
[DEFAULT]
target_tp = -1

[720p]
encoder = libx264
height = 720
pixfmt = yuv420p
options = -preset slow -x264-params "keyint=240:min-keyint=24" ; kept
Target_LUFS = -16

[hevc]
hwaccel = cuda
encoder = hevc_nvenc
container = mkv
fps = 23.976
pixfmt = p010le
scale_flags = bicubic
options = -preset p7
target_lra = 11
target_tp = -1.5
`

func TestParseAppliesDefaultsAndKeepsOrder(t *testing.T) {
	list, err := presets.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "720p" || list[1].Name != "hevc" {
		t.Fatalf("unexpected presets %+v", list)
	}

	first := list[0]
	if first.HWAccel != "none" || first.Container != "mp4" || first.ScaleFlags != "lanczos" {
		t.Fatalf("expected defaults, got %+v", first)
	}
	if first.Height != "720" || first.FPS != "" {
		t.Fatalf("unexpected height/fps %q %q", first.Height, first.FPS)
	}
	if first.TargetLUFS != -16 || first.TargetLRA != 7 || first.TargetTP != -1 {
		t.Fatalf("unexpected loudness targets %v %v %v", first.TargetLUFS, first.TargetLRA, first.TargetTP)
	}
	if first.Options != `-preset slow -x264-params "keyint=240:min-keyint=24" ; kept` {
		t.Fatalf("expected options verbatim, got %q", first.Options)
	}
	if first.UsesHWAccel() {
		t.Fatal("expected no hwaccel")
	}

	second := list[1]
	if !second.UsesHWAccel() || second.Container != "mkv" || second.FPS != "23.976" || second.ScaleFlags != "bicubic" {
		t.Fatalf("unexpected second preset %+v", second)
	}
	if second.TargetLRA != 11 || second.TargetTP != -1.5 {
		t.Fatalf("unexpected loudness overrides %+v", second)
	}
}

func TestParseRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "no marker", content: "[a]\nencoder=x\npixfmt=y\noptions=z\n", wantMsg: "preset_start"},
		{name: "no presets", content: "preset_start:\n", wantMsg: "No valid presets"},
		{name: "missing required", content: "preset_start:\n[ok]\nencoder=x\npixfmt=y\noptions=z\n[bad]\nencoder=x\n", wantMsg: "bad: pixfmt, options"},
		{name: "bad float", content: "preset_start:\n[a]\nencoder=x\npixfmt=y\noptions=z\ntarget_lufs=loud\n", wantMsg: "target_lufs"},
		{name: "unsafe name", content: "preset_start:\n[a/b]\nencoder=x\npixfmt=y\noptions=z\n", wantMsg: "not allowed"},
		{name: "duplicate", content: "preset_start:\n[a]\nencoder=x\npixfmt=y\noptions=z\n[a]\nencoder=x\n", wantMsg: "Duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := presets.Parse([]byte(tt.content))
			if !errors.Is(err, services.ErrPreset) {
				t.Fatalf("expected preset error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected %q in %v", tt.wantMsg, err)
			}
		})
	}
}

func TestDefaultPresetsParse(t *testing.T) {
	list, err := presets.Parse(presets.DefaultPresets())
	if err != nil {
		t.Fatalf("built-in presets do not parse: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected built-in presets")
	}
}

func TestStoreAccessors(t *testing.T) {
	list, err := presets.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	store := presets.NewStore("presets.ini", list)
	if store.Len() != 2 {
		t.Fatalf("unexpected len %d", store.Len())
	}
	if names := store.Names(); names[0] != "720p" || names[1] != "hevc" {
		t.Fatalf("unexpected names %v", names)
	}
	if p, ok := store.Get("hevc"); !ok || p.Encoder != "hevc_nvenc" {
		t.Fatalf("unexpected lookup %+v %v", p, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected missing preset")
	}
	if hw := store.HWAccels(); len(hw) != 1 || hw[0] != "cuda" {
		t.Fatalf("unexpected hwaccels %v", hw)
	}
}

func TestLoadBootstrapsBuiltInPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "presets.ini")
	store, err := presets.Load(context.Background(), path, presets.LoadOptions{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Len() == 0 || store.Path() != path {
		t.Fatalf("unexpected store %d %q", store.Len(), store.Path())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected presets file written: %v", err)
	}
}

func TestLoadBootstrapCommand(t *testing.T) {
	dir := t.TempDir()
	script := testsupport.WriteScript(t, filepath.Join(dir, "bin"), "make-presets", `printf 'preset_start:\n[custom]\nencoder=libx265\npixfmt=yuv420p10le\noptions=-crf 22\n' > "$O3ENC_PRESETS_FILE"
`)
	path := filepath.Join(dir, "presets.ini")
	store, err := presets.Load(context.Background(), path, presets.LoadOptions{BootstrapCommand: script})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if names := store.Names(); len(names) != 1 || names[0] != "custom" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestLoadBootstrapCommandFailures(t *testing.T) {
	dir := t.TempDir()
	failing := testsupport.WriteScript(t, filepath.Join(dir, "bin"), "fail", "echo 'no templates' >&2\nexit 2\n")
	noop := testsupport.WriteScript(t, filepath.Join(dir, "bin"), "noop", "exit 0\n")

	for _, command := range []string{failing, noop} {
		_, err := presets.Load(context.Background(), filepath.Join(dir, "presets.ini"), presets.LoadOptions{BootstrapCommand: command})
		if !errors.Is(err, services.ErrPreset) {
			t.Fatalf("expected preset error for %s, got %v", command, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"720p", "hevc 1080p", "x264-slow_v2"}
	for _, name := range valid {
		if err := presets.ValidateName(name); err != nil {
			t.Fatalf("expected %q valid, got %v", name, err)
		}
	}
	invalid := []string{"", " padded", "..", "a:b", "what?", "tab\tname"}
	for _, name := range invalid {
		if err := presets.ValidateName(name); err == nil {
			t.Fatalf("expected %q rejected", name)
		}
	}
}
