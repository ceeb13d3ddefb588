package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"

	"o3enc/internal/fileutil"
	"o3enc/internal/logging"
	"o3enc/internal/media/ffprobe"
	"o3enc/internal/services"
)

// Unknown marks a property the prober did not report.
const Unknown = "unknown"

// Info describes the first video stream of an input file.
type Info struct {
	Width          int
	Height         int
	FPS            float64
	Duration       float64 // seconds, 0 when unknown
	Codec          string
	PixFmt         string
	ColorSpace     string
	ColorTransfer  string
	ColorPrimaries string
	ColorRange     string
	FieldOrder     string
	SizeMB         float64
}

// HasColorSpace reports whether the source declares its colorspace.
func (i Info) HasColorSpace() bool {
	return known(i.ColorSpace)
}

// HasColorRange reports whether the source declares its color range.
func (i Info) HasColorRange() bool {
	return known(i.ColorRange)
}

var probeVideo = ffprobe.InspectVideo

// Analyze probes path and derives Info. Missing or invalid stream data fails
// with services.ErrVideoAnalysis; an absent duration only warns.
func Analyze(ctx context.Context, binary, path string, logger *slog.Logger) (Info, error) {
	logger = logging.NewComponentLogger(logger, "source")

	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "stat input", "Input file does not exist", err)
		}
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "stat input", "Failed to get file size", err)
	}
	if stat.IsDir() {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "stat input", fmt.Sprintf("Input is a directory: %s", path), nil)
	}

	result, err := probeVideo(ctx, binary, path)
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "ffprobe", "FFprobe failed", err)
	}
	stream, ok := result.FirstVideo()
	if !ok {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "ffprobe", "No video stream found in input file", nil)
	}

	info, err := fromStream(stream, logger)
	if err != nil {
		return Info{}, err
	}
	info.SizeMB = fileutil.SizeMB(stat.Size())

	logger.Info("video analysis completed",
		logging.String("input", path),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Float64("fps", info.FPS),
		logging.String("codec", info.Codec),
		logging.String("colorspace", info.ColorSpace),
		logging.String("color_range", info.ColorRange),
	)
	return info, nil
}

func fromStream(stream ffprobe.Stream, logger *slog.Logger) (Info, error) {
	var missing []string
	if stream.Width == 0 {
		missing = append(missing, "width")
	}
	if stream.Height == 0 {
		missing = append(missing, "height")
	}
	if strings.TrimSpace(stream.RFrameRate) == "" {
		missing = append(missing, "r_frame_rate")
	}
	if strings.TrimSpace(stream.CodecName) == "" {
		missing = append(missing, "codec_name")
	}
	if len(missing) > 0 {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "validate stream",
			"Missing required video information: "+strings.Join(missing, ", "), nil)
	}
	if stream.Width < 0 || stream.Height < 0 {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "validate stream",
			fmt.Sprintf("Invalid video dimensions: %dx%d", stream.Width, stream.Height), nil)
	}

	fps, err := stream.FrameRate()
	if err != nil {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "frame rate", "Invalid frame rate format", err)
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return Info{}, services.Wrap(services.ErrVideoAnalysis, "source", "frame rate", fmt.Sprintf("Invalid frame rate: %v FPS", fps), nil)
	}

	duration := stream.DurationSeconds()
	switch {
	case math.IsNaN(duration):
		logging.WarnWithContext(logger, "could not parse duration value", "duration_unparseable",
			logging.String("duration", stream.Duration),
			logging.String(logging.FieldImpact, "progress percentages unavailable"))
		duration = 0
	case duration <= 0:
		logging.WarnWithContext(logger, "invalid or missing duration in video stream", "duration_missing",
			logging.String(logging.FieldImpact, "progress percentages unavailable"))
		duration = 0
	}

	return Info{
		Width:          stream.Width,
		Height:         stream.Height,
		FPS:            fps,
		Duration:       duration,
		Codec:          stream.CodecName,
		PixFmt:         orUnknown(stream.PixFmt),
		ColorSpace:     orUnknown(stream.ColorSpace),
		ColorTransfer:  orUnknown(stream.ColorTransfer),
		ColorPrimaries: orUnknown(stream.ColorPrimaries),
		ColorRange:     orUnknown(stream.ColorRange),
		FieldOrder:     orUnknown(stream.FieldOrder),
	}, nil
}

func orUnknown(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Unknown
	}
	return value
}

func known(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, Unknown)
}
