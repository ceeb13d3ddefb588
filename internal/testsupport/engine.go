package testsupport

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"o3enc/internal/config"
)

// DefaultVideoJSON is the probe payload for a 1080p BT.709 source.
const DefaultVideoJSON = `{"programs":[],"streams":[{"codec_type":"video","width":1920,"height":1080,"r_frame_rate":"24000/1001","codec_name":"h264","duration":"60.000000","pix_fmt":"yuv420p","color_space":"bt709","color_transfer":"bt709","color_primaries":"bt709","color_range":"tv","field_order":"progressive"}],"format":{"size":"1048576"}}`

// UntaggedVideoJSON is the probe payload for a 576p source without color metadata.
const UntaggedVideoJSON = `{"programs":[],"streams":[{"codec_type":"video","width":720,"height":576,"r_frame_rate":"25/1","codec_name":"mpeg2video","duration":"60.000000","pix_fmt":"yuv420p","field_order":"tt"}]}`

// DefaultLoudnormJSON is a loudnorm measurement block as ffmpeg prints it.
const DefaultLoudnormJSON = `{
	"input_i" : "-27.61",
	"input_tp" : "-4.47",
	"input_lra" : "18.06",
	"input_thresh" : "-39.20",
	"output_i" : "-16.58",
	"output_tp" : "-1.50",
	"output_lra" : "14.78",
	"output_thresh" : "-27.71",
	"normalization_type" : "dynamic",
	"target_offset" : "0.58"
}`

// Engine scripts stand-ins for ffprobe and ffmpeg. Every invocation appends
// its arguments to <dir>/ffmpeg.calls or <dir>/ffprobe.calls.
type Engine struct {
	VideoJSON    string
	AudioCodecs  []string
	LoudnormJSON string
	FailMeasure  bool
	FailHWAccel  bool
	// FailPass makes pass 1 or pass 2 exit non-zero. A failing pass 2
	// leaves a partial output behind.
	FailPass int
	// EmptyOutput makes pass 2 succeed without producing any bytes.
	EmptyOutput bool
}

// Install writes the scripts into dir and returns the ffmpeg and ffprobe paths.
func (e Engine) Install(t testing.TB, dir string) (string, string) {
	t.Helper()
	video := e.VideoJSON
	if video == "" {
		video = DefaultVideoJSON
	}
	loudnorm := e.LoudnormJSON
	if loudnorm == "" {
		loudnorm = DefaultLoudnormJSON
	}

	probe := fmt.Sprintf(`echo "$*" >> %q
case "$*" in
*"-select_streams a"*)
%s
  ;;
*)
  cat <<'JSON'
%s
JSON
  ;;
esac
exit 0
`, filepath.Join(dir, "ffprobe.calls"), audioLines(e.AudioCodecs), video)

	var measure strings.Builder
	if e.FailMeasure {
		measure.WriteString("  echo 'Error while filtering: Invalid argument' >&2\n  exit 1\n")
	} else {
		measure.WriteString("  printf 'size=N/A time=00:00:30.00 bitrate=N/A speed=60x\\r' >&2\n")
		measure.WriteString("  cat >&2 <<'JSON'\n[Parsed_loudnorm_0 @ 0x5581]\n" + loudnorm + "\nJSON\n  exit 0\n")
	}

	hwaccelExit := 0
	if e.FailHWAccel {
		hwaccelExit = 1
	}

	var pass1 strings.Builder
	if e.FailPass == 1 {
		pass1.WriteString("  echo 'Unknown encoder' >&2\n  exit 1\n")
	} else {
		pass1.WriteString("  printf 'frame=  720 fps=120 size=N/A time=00:00:30.00 bitrate=N/A speed=5x\\r' >&2\n")
		pass1.WriteString("  : > ffmpeg2pass-0.log\n  : > ffmpeg2pass-0.log.mbtree\n  exit 0\n")
	}

	var pass2 strings.Builder
	pass2.WriteString("  for out; do :; done\n")
	switch {
	case e.FailPass == 2:
		pass2.WriteString("  printf 'partial' > \"$out\"\n  echo 'Conversion failed!' >&2\n  exit 1\n")
	case e.EmptyOutput:
		pass2.WriteString("  : > \"$out\"\n  exit 0\n")
	default:
		pass2.WriteString("  printf 'frame= 1440 fps=60 size=1024KiB time=00:01:00.00 bitrate=N/A speed=2x\\r' >&2\n")
		pass2.WriteString("  printf 'encoded-video' > \"$out\"\n  exit 0\n")
	}

	transcode := fmt.Sprintf(`echo "$*" >> %q
case "$*" in
*print_format=json*)
%s  ;;
*"-f lavfi"*)
  exit %d
  ;;
*"-pass 1"*)
%s  ;;
*"-pass 2"*)
%s  ;;
esac
exit 0
`, filepath.Join(dir, "ffmpeg.calls"), measure.String(), hwaccelExit, pass1.String(), pass2.String())

	ffmpeg := WriteScript(t, dir, "ffmpeg", transcode)
	ffprobe := WriteScript(t, dir, "ffprobe", probe)
	return ffmpeg, ffprobe
}

func audioLines(codecs []string) string {
	if len(codecs) == 0 {
		return "  :"
	}
	lines := make([]string, 0, len(codecs))
	for _, codec := range codecs {
		lines = append(lines, fmt.Sprintf("  echo %q", codec))
	}
	return strings.Join(lines, "\n")
}

// EngineCalls returns the recorded ffmpeg invocations for a config built with
// WithEngine.
func EngineCalls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	return ReadLines(t, filepath.Join(filepath.Dir(cfg.Tools.FFmpeg), "ffmpeg.calls"))
}

// ProbeCalls returns the recorded ffprobe invocations for a config built with
// WithEngine.
func ProbeCalls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	return ReadLines(t, filepath.Join(filepath.Dir(cfg.Tools.FFprobe), "ffprobe.calls"))
}
