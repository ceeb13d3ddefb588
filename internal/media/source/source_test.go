package source_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"o3enc/internal/logging"
	"o3enc/internal/media/ffprobe"
	"o3enc/internal/media/source"
	"o3enc/internal/services"
	"o3enc/internal/testsupport"
)

func stubProbe(t *testing.T, streams ...ffprobe.Stream) {
	t.Helper()
	restore := source.SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: streams}, nil
	})
	t.Cleanup(restore)
}

func inputFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mkv")
	testsupport.WriteFile(t, path, size)
	return path
}

func TestAnalyzeDerivesInfo(t *testing.T) {
	stubProbe(t, ffprobe.Stream{
		Width:      1920,
		Height:     1080,
		RFrameRate: "30000/1001",
		CodecName:  "h264",
		Duration:   "120.5",
		PixFmt:     "yuv420p",
		ColorSpace: "bt709",
		ColorRange: "tv",
	})
	path := inputFile(t, 2*1024*1024)

	info, err := source.Analyze(context.Background(), "ffprobe", path, logging.NewNop())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 || info.Codec != "h264" {
		t.Fatalf("unexpected info %+v", info)
	}
	if math.Abs(info.FPS-29.97) > 0.01 {
		t.Fatalf("unexpected fps %v", info.FPS)
	}
	if info.Duration != 120.5 {
		t.Fatalf("unexpected duration %v", info.Duration)
	}
	if info.SizeMB != 2 {
		t.Fatalf("unexpected size %v", info.SizeMB)
	}
	if !info.HasColorSpace() || !info.HasColorRange() {
		t.Fatalf("expected color metadata reported: %+v", info)
	}
	if info.ColorTransfer != source.Unknown || info.FieldOrder != source.Unknown {
		t.Fatalf("expected unknown defaults, got %q %q", info.ColorTransfer, info.FieldOrder)
	}
}

func TestAnalyzeMissingDurationIsZero(t *testing.T) {
	for _, duration := range []string{"", "N/A", "-3"} {
		stubProbe(t, ffprobe.Stream{Width: 720, Height: 576, RFrameRate: "25/1", CodecName: "mpeg2video", Duration: duration})
		info, err := source.Analyze(context.Background(), "ffprobe", inputFile(t, 10), nil)
		if err != nil {
			t.Fatalf("Analyze(%q) returned error: %v", duration, err)
		}
		if info.Duration != 0 {
			t.Fatalf("expected zero duration for %q, got %v", duration, info.Duration)
		}
		if info.HasColorSpace() {
			t.Fatal("expected unknown colorspace")
		}
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name    string
		stream  *ffprobe.Stream
		wantMsg string
	}{
		{name: "no stream", wantMsg: "No video stream"},
		{name: "missing fields", stream: &ffprobe.Stream{Width: 720, RFrameRate: "25/1"}, wantMsg: "height, codec_name"},
		{name: "zero denominator", stream: &ffprobe.Stream{Width: 720, Height: 576, RFrameRate: "25/0", CodecName: "h264"}, wantMsg: "Invalid frame rate"},
		{name: "zero fps", stream: &ffprobe.Stream{Width: 720, Height: 576, RFrameRate: "0/1", CodecName: "h264"}, wantMsg: "Invalid frame rate"},
		{name: "negative dimensions", stream: &ffprobe.Stream{Width: -1, Height: 576, RFrameRate: "25/1", CodecName: "h264"}, wantMsg: "Invalid video dimensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.stream == nil {
				stubProbe(t)
			} else {
				stubProbe(t, *tt.stream)
			}
			_, err := source.Analyze(context.Background(), "ffprobe", inputFile(t, 10), nil)
			if !errors.Is(err, services.ErrVideoAnalysis) {
				t.Fatalf("expected video analysis error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected %q in %v", tt.wantMsg, err)
			}
		})
	}
}

func TestAnalyzeMissingInput(t *testing.T) {
	_, err := source.Analyze(context.Background(), "ffprobe", filepath.Join(t.TempDir(), "nope.mkv"), nil)
	if !errors.Is(err, services.ErrVideoAnalysis) || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestAnalyzeProbeFailure(t *testing.T) {
	restore := source.SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("exit status 1")
	})
	defer restore()
	_, err := source.Analyze(context.Background(), "ffprobe", inputFile(t, 10), nil)
	if !errors.Is(err, services.ErrVideoAnalysis) || !strings.Contains(err.Error(), "FFprobe failed") {
		t.Fatalf("expected probe failure error, got %v", err)
	}
}
