package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// VideoEntries lists the stream fields requested when describing a source.
const VideoEntries = "stream=width,height,r_frame_rate,codec_name,duration,pix_fmt,color_space,color_transfer,color_primaries,color_range,field_order,bit_rate"

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index          int    `json:"index"`
	CodecName      string `json:"codec_name"`
	CodecType      string `json:"codec_type"`
	Duration       string `json:"duration"`
	BitRate        string `json:"bit_rate"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	RFrameRate     string `json:"r_frame_rate"`
	PixFmt         string `json:"pix_fmt"`
	ColorSpace     string `json:"color_space"`
	ColorTransfer  string `json:"color_transfer"`
	ColorPrimaries string `json:"color_primaries"`
	ColorRange     string `json:"color_range"`
	FieldOrder     string `json:"field_order"`
	SampleRate     string `json:"sample_rate"`
	Channels       int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

var commandContext = exec.CommandContext

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	return run(ctx, binary, path, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json")
}

// InspectVideo queries the first video stream for the fields used to plan an encode.
func InspectVideo(ctx context.Context, binary string, path string) (Result, error) {
	return run(ctx, binary, path, "-v", "quiet", "-select_streams", "v:0", "-print_format", "json", "-show_entries", VideoEntries)
}

// AudioCodecs lists the codec names of every audio stream, in stream order.
// An empty slice means the file carries no audio.
func AudioCodecs(ctx context.Context, binary string, path string) ([]string, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return nil, err
	}
	cmd := commandContext(ctx, binary, "-v", "error", "-select_streams", "a", "-show_entries", "stream=codec_name", "-of", "csv=p=0", "--", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe audio streams: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	var codecs []string
	for _, line := range strings.Split(string(output), "\n") {
		if codec := strings.Trim(strings.TrimSpace(line), ","); codec != "" {
			codecs = append(codecs, codec)
		}
	}
	return codecs, nil
}

func run(ctx context.Context, binary, path string, args ...string) (Result, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return Result{}, err
	}

	args = append(args, "--", path)
	cmd := commandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

func normalizeArgs(binary, path string) (string, string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", errors.New("ffprobe inspect: empty path")
	}
	return binary, path, nil
}

// FirstVideo returns the first video stream. Streams from a video-only query
// may omit codec_type, so an untyped stream with dimensions also qualifies.
func (r Result) FirstVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
		if stream.CodecType == "" && (stream.Width > 0 || stream.Height > 0 || stream.RFrameRate != "") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// FrameRate parses r_frame_rate ("num/den" or a plain number).
func (s Stream) FrameRate() (float64, error) {
	value := strings.TrimSpace(s.RFrameRate)
	if value == "" {
		return 0, errors.New("frame rate missing")
	}
	num, den, hasDen := strings.Cut(value, "/")
	numerator, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", value)
	}
	if !hasDen {
		return numerator, nil
	}
	denominator, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", value)
	}
	if denominator == 0 {
		return 0, fmt.Errorf("invalid frame rate %q: zero denominator", value)
	}
	return numerator / denominator, nil
}

// DurationSeconds returns the stream duration, or NaN when unparseable.
func (s Stream) DurationSeconds() float64 {
	return parseFloat(s.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
