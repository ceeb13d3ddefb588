package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	PresetsFile string `toml:"presets_file"`
	OutputDir   string `toml:"output_dir"`
	WorkDir     string `toml:"work_dir"`
	TempDir     string `toml:"temp_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryDB   string `toml:"history_db"`
}

// Tools contains the external engine binaries.
type Tools struct {
	FFmpeg                  string `toml:"ffmpeg"`
	FFprobe                 string `toml:"ffprobe"`
	PresetsBootstrapCommand string `toml:"presets_bootstrap_command"`
}

// Preflight contains settings for the environment checks run by --init.
type Preflight struct {
	HWAccelCheck bool `toml:"hwaccel_check"`
}

// Cleanup contains settings for transient file removal.
type Cleanup struct {
	MaxAttempts  int `toml:"max_attempts"`
	RetryDelayMS int `toml:"retry_delay_ms"`
}

// History contains settings for the encode history ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for o3enc.
//
// Configuration sections by subsystem:
//   - Paths: presets file, output/work/temp/log directories, history database
//   - Tools: ffmpeg/ffprobe binaries and the preset bootstrap command
//   - Preflight: hardware acceleration smoke test toggle
//   - Cleanup: retry policy for lock-contended pass logs
//   - History: encode history ledger toggle
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Preflight Preflight `toml:"preflight"`
	Cleanup   Cleanup   `toml:"cleanup"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("o3enc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	pathFields := []*string{
		&c.Paths.PresetsFile,
		&c.Paths.OutputDir,
		&c.Paths.WorkDir,
		&c.Paths.TempDir,
		&c.Paths.LogDir,
		&c.Paths.HistoryDB,
	}
	for _, field := range pathFields {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			continue
		}
		if *field, err = expandPath(*field); err != nil {
			return err
		}
	}
	if c.Paths.TempDir == "" {
		c.Paths.TempDir = os.TempDir()
	}

	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.PresetsBootstrapCommand = strings.TrimSpace(c.Tools.PresetsBootstrapCommand)

	if value, ok := os.LookupEnv("O3ENC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && c.Paths.HistoryDB != "" {
		if err := os.MkdirAll(filepath.Dir(c.Paths.HistoryDB), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for measurement and encoding.
func (c *Config) FFmpegBinary() string {
	if c == nil || c.Tools.FFmpeg == "" {
		return defaultFFmpegBinary
	}
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if c == nil || c.Tools.FFprobe == "" {
		return defaultFFprobeBinary
	}
	return c.Tools.FFprobe
}

// LogFilePath returns the per-run log file, or "" when file logging is off.
func (c *Config) LogFilePath() string {
	if c == nil || c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "o3enc.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
