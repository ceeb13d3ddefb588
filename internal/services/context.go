package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	presetKey contextKey = "preset"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPreset annotates context with the preset currently being encoded.
func WithPreset(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, presetKey, name)
}

// PresetFromContext returns the preset name if present.
func PresetFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(presetKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
