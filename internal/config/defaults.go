package config

const (
	defaultConfigPath        = "~/.config/o3enc/config.toml"
	defaultPresetsFile       = "~/.config/o3enc/presets.ini"
	defaultOutputDir         = "."
	defaultWorkDir           = "."
	defaultLogDir            = "~/.local/share/o3enc/logs"
	defaultHistoryDB         = "~/.local/share/o3enc/history.db"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultCleanupAttempts   = 3
	defaultCleanupRetryDelay = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			PresetsFile: defaultPresetsFile,
			OutputDir:   defaultOutputDir,
			WorkDir:     defaultWorkDir,
			LogDir:      defaultLogDir,
			HistoryDB:   defaultHistoryDB,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Preflight: Preflight{
			HWAccelCheck: true,
		},
		Cleanup: Cleanup{
			MaxAttempts:  defaultCleanupAttempts,
			RetryDelayMS: defaultCleanupRetryDelay,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
