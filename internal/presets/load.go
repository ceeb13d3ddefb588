package presets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	"o3enc/internal/logging"
	"o3enc/internal/services"
)

// EnvPresetsFile names the file a bootstrap command must write.
const EnvPresetsFile = "O3ENC_PRESETS_FILE"

// LoadOptions controls how a missing presets file is created.
type LoadOptions struct {
	// BootstrapCommand runs when the file is missing. It must write the file
	// named by $O3ENC_PRESETS_FILE. Empty writes the built-in presets.
	BootstrapCommand string
	Logger           *slog.Logger
}

var commandContext = exec.CommandContext

// Load reads the presets file, bootstrapping it once when it does not exist.
func Load(ctx context.Context, path string, opts LoadOptions) (*Store, error) {
	logger := logging.NewComponentLogger(opts.Logger, "presets")

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "presets file not found", "presets_missing",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "default presets will be created"))
		if err := bootstrap(ctx, path, opts.BootstrapCommand, logger); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPreset, "presets", "read", "Failed to read presets file", err)
	}

	presets, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded presets", logging.Int("count", len(presets)), logging.String("path", path))
	return NewStore(path, presets), nil
}

func bootstrap(ctx context.Context, path, command string, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrPreset, "presets", "bootstrap", "Failed to create presets directory", err)
	}

	command = strings.TrimSpace(command)
	if command == "" {
		if err := os.WriteFile(path, defaultPresets, 0o644); err != nil {
			return services.Wrap(services.ErrPreset, "presets", "bootstrap", "Failed to create presets", err)
		}
		logger.Info("created default presets", logging.String("path", path))
		return nil
	}

	args, err := shellwords.Parse(command)
	if err != nil || len(args) == 0 {
		return services.Wrap(services.ErrPreset, "presets", "bootstrap", fmt.Sprintf("Invalid bootstrap command %q", command), err)
	}
	cmd := commandContext(ctx, args[0], args[1:]...) //nolint:gosec
	cmd.Dir = filepath.Dir(path)
	cmd.Env = append(os.Environ(), EnvPresetsFile+"="+path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrPreset, "presets", "bootstrap",
			fmt.Sprintf("Bootstrap command failed: %s", strings.TrimSpace(stderr.String())), err)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrPreset, "presets", "bootstrap",
			fmt.Sprintf("Bootstrap command did not create %s: %s", path, strings.TrimSpace(stderr.String())), nil)
	}
	logger.Info("created presets with bootstrap command", logging.String("path", path), logging.String("command", args[0]))
	return nil
}
