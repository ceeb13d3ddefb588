package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"o3enc/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEncoding, "encoding", "pass 1", "first pass encoding failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, services.ErrO3Enc) {
		t.Fatalf("expected root marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encoding", "pass 1", "first pass encoding failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestMarkersAreDistinct(t *testing.T) {
	err := services.Wrap(services.ErrPreset, "presets", "load", "missing encoder", nil)
	if errors.Is(err, services.ErrEncoding) {
		t.Fatalf("preset error must not match encoding marker: %v", err)
	}
	if !errors.Is(err, services.ErrPreset) {
		t.Fatalf("expected preset marker, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: services.ExitOK},
		{name: "handled", err: services.Wrap(services.ErrVideoAnalysis, "source", "probe", "bad", nil), want: services.ExitFailure},
		{name: "unclassified", err: errors.New("surprise"), want: services.ExitFailure},
		{name: "interrupt", err: fmt.Errorf("prompt: %w", context.Canceled), want: services.ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
