package encoding

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-shellwords"

	"o3enc/internal/presets"
	"o3enc/internal/services"
)

// Hardware decoders that also need frames kept in device memory.
var hwOutputFormats = map[string]bool{
	"cuda":    true,
	"d3d11va": true,
	"qsv":     true,
	"vaapi":   true,
}

// HWAccelArgs returns the decoder flags for the preset's hwaccel value.
func HWAccelArgs(hwaccel string) []string {
	hw := strings.ToLower(strings.TrimSpace(hwaccel))
	if hw == "" || hw == presets.HWAccelNone {
		return nil
	}
	args := []string{"-hwaccel", hw}
	if hwOutputFormats[hw] {
		args = append(args, "-hwaccel_output_format", hw)
	}
	return args
}

// SplitOptions tokenizes a preset option string with shell quoting rules.
func SplitOptions(options string) ([]string, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	args, err := parser.Parse(options)
	if err != nil {
		return nil, services.Wrap(services.ErrEncoding, "encoding", "parse options", "Invalid encoder options", err)
	}
	if parser.Position >= 0 {
		return nil, services.Wrap(services.ErrEncoding, "encoding", "parse options",
			fmt.Sprintf("Encoder options contain a shell operator at offset %d", parser.Position), nil)
	}
	return args, nil
}

func baseArgs(job Job, options []string) []string {
	args := []string{"-y", "-loglevel", "warning", "-stats"}
	args = append(args, HWAccelArgs(job.Preset.HWAccel)...)
	args = append(args, "-i", job.Input, "-c:v", job.Preset.Encoder)
	args = append(args, options...)
	if len(job.Filters) > 0 {
		args = append(args, "-vf", strings.Join(job.Filters, ","))
	}
	return args
}

// Pass1Args builds the analysis pass; video only, output discarded.
func Pass1Args(job Job, options []string) []string {
	args := baseArgs(job, options)
	return append(args, "-pass", "1", "-an", "-f", "null", os.DevNull)
}

// Pass2Args builds the final pass, adding stereo AAC audio and the loudness
// filter when one was measured.
func Pass2Args(job Job, options []string) []string {
	args := baseArgs(job, options)
	args = append(args, "-pass", "2", "-c:a", "aac", "-b:a", "128k", "-ac", "2")
	if strings.TrimSpace(job.AudioFilter) != "" {
		args = append(args, "-af", job.AudioFilter)
	}
	return append(args, job.Output)
}
