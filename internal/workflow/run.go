package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"o3enc/internal/colorsettings"
	"o3enc/internal/loudness"
	"o3enc/internal/media/source"
	"o3enc/internal/naming"
	"o3enc/internal/presets"
)

// TempDirPrefix names per-run scratch directories.
const TempDirPrefix = "o3enc_"

// Run is the state of one session, threaded explicitly through each step.
// Only the session loop mutates it.
type Run struct {
	ID      string
	Input   string
	TempDir string
	Presets *presets.Store
	Source  source.Info
	Color   colorsettings.Decision
	Names   *naming.Resolver
	Audio   loudness.Result
}

func newRun(id, input, tempRoot, outputDir string) (*Run, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	dir := filepath.Join(tempRoot, TempDirPrefix+id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create run temp dir: %w", err)
	}
	return &Run{
		ID:      id,
		Input:   abs,
		TempDir: dir,
		Names:   naming.NewResolver(outputDir),
	}, nil
}
