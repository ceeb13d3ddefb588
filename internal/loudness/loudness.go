package loudness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"o3enc/internal/logging"
	"o3enc/internal/media/ffmpeg"
	"o3enc/internal/media/ffprobe"
	"o3enc/internal/services"
)

// TranscriptFile is the name of the saved measurement transcript.
const TranscriptFile = "loudnorm_measure.log"

// Targets are the normalization goals taken from a preset.
type Targets struct {
	I   float64 // integrated loudness, LUFS
	LRA float64 // loudness range, LU
	TP  float64 // true peak, dBTP
}

// Measurement holds the loudnorm first-stage statistics.
type Measurement struct {
	InputI       float64
	InputLRA     float64
	InputTP      float64
	InputThresh  float64
	TargetOffset float64
}

// Result is either a measurement (Found) or the absence of any audio stream.
type Result struct {
	Found       bool
	Measurement Measurement
	Targets     Targets
	Codecs      []string
}

// Options configures an Analyzer.
type Options struct {
	FFmpeg  string
	FFprobe string
	// TranscriptDir receives the raw measurement diagnostics when set.
	TranscriptDir string
	Progress      func(ffmpeg.Progress)
	Logger        *slog.Logger
}

// Analyzer runs the measurement stage of two-stage loudness normalization.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

var (
	probeAudio = ffprobe.AudioCodecs
	runFFmpeg  = ffmpeg.Run
)

// NewAnalyzer returns an analyzer using the given engine binaries.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "loudness")}
}

// Analyze checks input for audio and, when present, measures it against
// targets. A file without audio yields Result{Found: false} and no error.
func (a *Analyzer) Analyze(ctx context.Context, input string, targets Targets) (Result, error) {
	logger := logging.WithContext(ctx, a.logger)

	codecs, err := probeAudio(ctx, a.opts.FFprobe, input)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "probe", "Failed to probe audio stream", err)
	}
	if len(codecs) == 0 {
		logger.Info("no audio track detected")
		return Result{Found: false, Targets: targets}, nil
	}
	logger.Info("measuring audio loudness",
		logging.String("codecs", strings.Join(codecs, ",")),
		logging.String("targets", MeasureFilter(targets)))

	run, err := runFFmpeg(ctx, ffmpeg.Command{
		Binary:   a.opts.FFmpeg,
		Args:     MeasureArgs(input, targets),
		Progress: a.opts.Progress,
	})
	a.saveTranscript(run.Transcript, logger)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "measure", "Audio analysis failed", err)
	}

	measurement, err := ParseMeasurement(run.Transcript)
	if err != nil {
		return Result{}, err
	}
	logger.Info("audio analysis completed",
		logging.Float64("input_i", measurement.InputI),
		logging.Float64("input_lra", measurement.InputLRA),
		logging.Float64("input_tp", measurement.InputTP))
	return Result{Found: true, Measurement: measurement, Targets: targets, Codecs: codecs}, nil
}

func (a *Analyzer) saveTranscript(transcript string, logger *slog.Logger) {
	if a.opts.TranscriptDir == "" || transcript == "" {
		return
	}
	path := filepath.Join(a.opts.TranscriptDir, TranscriptFile)
	if err := os.MkdirAll(a.opts.TranscriptDir, 0o755); err == nil {
		err = os.WriteFile(path, []byte(transcript), 0o644)
		if err == nil {
			logger.Debug("saved loudness transcript", logging.String("path", path))
			return
		}
		logger.Debug("could not save loudness transcript", logging.Error(err))
	}
}

// MeasureArgs returns the ffmpeg arguments of the measurement run.
func MeasureArgs(input string, targets Targets) []string {
	return []string{
		"-v", "info",
		"-stats",
		"-i", input,
		"-vn",
		"-af", MeasureFilter(targets),
		"-f", "null", "-",
	}
}

// MeasureFilter returns the loudnorm filter for the measurement run.
func MeasureFilter(targets Targets) string {
	return fmt.Sprintf("loudnorm=I=%s:LRA=%s:TP=%s:print_format=json",
		formatFloat(targets.I), formatFloat(targets.LRA), formatFloat(targets.TP))
}

// ApplyFilter returns the loudnorm filter that applies m in linear mode.
func ApplyFilter(targets Targets, m Measurement) string {
	return fmt.Sprintf("loudnorm=I=%s:LRA=%s:TP=%s:measured_I=%s:measured_LRA=%s:measured_TP=%s:measured_thresh=%s:offset=%s:linear=true:print_format=summary",
		formatFloat(targets.I), formatFloat(targets.LRA), formatFloat(targets.TP),
		formatFloat(m.InputI), formatFloat(m.InputLRA), formatFloat(m.InputTP),
		formatFloat(m.InputThresh), formatFloat(m.TargetOffset))
}

var requiredFields = []string{"input_i", "input_lra", "input_tp", "input_thresh", "target_offset"}

// ParseMeasurement extracts the loudnorm JSON block from a diagnostic
// transcript. The block spans the first '{' to the last '}'.
func ParseMeasurement(transcript string) (Measurement, error) {
	start := strings.Index(transcript, "{")
	end := strings.LastIndex(transcript, "}")
	if start < 0 || end < start {
		return Measurement{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "parse", "Audio analysis data not found in output", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(transcript[start:end+1]), &raw); err != nil {
		return Measurement{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "parse", "Failed to parse audio analysis data", err)
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Measurement{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "parse",
			"Missing audio analysis data: "+strings.Join(missing, ", "), nil)
	}

	values := make(map[string]float64, len(requiredFields))
	for _, field := range requiredFields {
		value, err := parseNumber(raw[field])
		if err != nil {
			return Measurement{}, services.Wrap(services.ErrAudioAnalysis, "loudness", "parse",
				fmt.Sprintf("Invalid audio measurement value for %s", field), err)
		}
		values[field] = value
	}
	return Measurement{
		InputI:       values["input_i"],
		InputLRA:     values["input_lra"],
		InputTP:      values["input_tp"],
		InputThresh:  values["input_thresh"],
		TargetOffset: values["target_offset"],
	}, nil
}

// parseNumber accepts a JSON number or a string holding one. Non-finite
// values such as "-inf" (silent tracks) cannot drive a linear gain.
func parseNumber(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(s)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("value is not finite: " + text)
	}
	return value, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
