package preflight

import (
	"context"
	"strings"

	"o3enc/internal/config"
	"o3enc/internal/presets"
	"o3enc/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// CheckBinaries fails with an initialization error unless both engine
// binaries resolve.
func CheckBinaries(cfg *config.Config) ([]Result, error) {
	results := CheckEngine(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	if failed := Failed(results); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, result := range failed {
			names = append(names, result.Name)
		}
		return results, services.Wrap(services.ErrInitialization, "preflight", "check binaries",
			"Required tools are missing: "+strings.Join(names, ", "), nil)
	}
	return results, nil
}

// RunAll executes every initialization check: engine binaries, then
// CheckEnvironment. Any failure is an initialization error.
func RunAll(ctx context.Context, cfg *config.Config, store *presets.Store) ([]Result, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrInitialization, "preflight", "run", "Configuration is missing", nil)
	}
	results, err := CheckBinaries(cfg)
	if err != nil {
		return results, err
	}
	more, err := CheckEnvironment(ctx, cfg, store)
	return append(results, more...), err
}

// CheckEnvironment checks the work directory and, when enabled, runs one
// smoke test per hardware accelerator the loaded presets use.
func CheckEnvironment(ctx context.Context, cfg *config.Config, store *presets.Store) ([]Result, error) {
	work := CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir)
	results := []Result{work}
	if !work.Passed {
		return results, services.Wrap(services.ErrInitialization, "preflight", "check work dir", work.Detail, nil)
	}

	if !cfg.Preflight.HWAccelCheck || store == nil {
		return results, nil
	}
	for _, hwaccel := range store.HWAccels() {
		result := CheckHWAccel(ctx, cfg.FFmpegBinary(), hwaccel)
		results = append(results, result)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if !result.Passed {
			return results, services.Wrap(services.ErrInitialization, "preflight", "check hwaccel", result.Detail, nil)
		}
	}
	return results, nil
}
