package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrO3Enc is the root marker every classified failure wraps.
var ErrO3Enc = errors.New("o3enc error")

var (
	ErrInitialization = fmt.Errorf("%w: initialization error", ErrO3Enc)
	ErrVideoAnalysis  = fmt.Errorf("%w: video analysis error", ErrO3Enc)
	ErrAudioAnalysis  = fmt.Errorf("%w: audio analysis error", ErrO3Enc)
	ErrPreset         = fmt.Errorf("%w: preset error", ErrO3Enc)
	ErrEncoding       = fmt.Errorf("%w: encoding error", ErrO3Enc)
)

// Exit codes reported by the CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrO3Enc
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCanceled reports whether err stems from a user interrupt.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCanceled(err):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
