package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"o3enc/internal/encoding"
	"o3enc/internal/fileutil"
	"o3enc/internal/filterchain"
	"o3enc/internal/loudness"
	"o3enc/internal/media/ffprobe"
	"o3enc/internal/media/source"
	"o3enc/internal/presets"
)

type row struct {
	key   string
	value string
}

func renderProperties(title string, rows []row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Property", "Value"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.key, r.value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func videoRows(info source.Info) []row {
	return []row{
		{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Frame Rate", formatFPS(info.FPS)},
		{"Duration", formatDuration(info.Duration)},
		{"Codec", info.Codec},
		{"Pixel Format", info.PixFmt},
		{"Color Space", info.ColorSpace},
		{"Color Transfer", info.ColorTransfer},
		{"Color Primaries", info.ColorPrimaries},
		{"Color Range", info.ColorRange},
		{"Field Order", info.FieldOrder},
		{"File Size", fmt.Sprintf("%.2f MB", info.SizeMB)},
	}
}

func previewRows(output string, p presets.Preset, info source.Info) []row {
	resolution := "unknown"
	if w, h, err := filterchain.OutputSize(p, info); err == nil {
		resolution = fmt.Sprintf("%dx%d", w, h)
	}
	fps := "unknown"
	if v, err := filterchain.OutputFPS(p, info); err == nil {
		fps = formatFPS(v)
	}
	return []row{
		{"Output Path", output},
		{"Resolution", resolution},
		{"Frame Rate", fps},
		{"Encoder", p.Encoder},
		{"Pixel Format", p.PixFmt},
	}
}

func audioRows(res loudness.Result) []row {
	m := res.Measurement
	return []row{
		{"Audio Codecs", strings.Join(res.Codecs, ", ")},
		{"Integrated Loudness", fmt.Sprintf("%.2f LUFS", m.InputI)},
		{"Loudness Range", fmt.Sprintf("%.2f LU", m.InputLRA)},
		{"True Peak", fmt.Sprintf("%.2f dBTP", m.InputTP)},
		{"Threshold", fmt.Sprintf("%.2f LUFS", m.InputThresh)},
		{"Target Offset", fmt.Sprintf("%.2f LU", m.TargetOffset)},
	}
}

// resultRows probes a finished output. Probe failures degrade to the
// path and size alone.
func resultRows(ctx context.Context, ffprobeBin, output string, size int64) []row {
	rows := []row{{"Output Path", output}}
	probe, err := ffprobe.Inspect(ctx, ffprobeBin, output)
	if err != nil {
		return append(rows, row{"File Size", fmt.Sprintf("%.2f MB", fileutil.SizeMB(size))})
	}
	rows = append(rows,
		row{"Container", orUnknown(probe.Format.FormatName)},
		row{"Duration", formatDuration(probe.DurationSeconds())},
		row{"Streams", fmt.Sprintf("%d video, %d audio", probe.VideoStreamCount(), probe.AudioStreamCount())},
	)
	if stream, ok := probe.FirstVideo(); ok {
		fps, _ := stream.FrameRate()
		rows = append(rows,
			row{"Resolution", fmt.Sprintf("%dx%d", stream.Width, stream.Height)},
			row{"Frame Rate", formatFPS(fps)},
			row{"Codec", orUnknown(stream.CodecName)},
			row{"Bit Rate", formatBitRate(stream.BitRate)},
			row{"Pixel Format", orUnknown(stream.PixFmt)},
			row{"Color Space", orUnknown(stream.ColorSpace)},
			row{"Color Transfer", orUnknown(stream.ColorTransfer)},
			row{"Color Primaries", orUnknown(stream.ColorPrimaries)},
			row{"Color Range", orUnknown(stream.ColorRange)},
		)
	}
	if reported := probe.SizeBytes(); reported > 0 {
		size = reported
	}
	return append(rows, row{"File Size", fmt.Sprintf("%.2f MB", fileutil.SizeMB(size))})
}

func formatFPS(fps float64) string {
	if fps <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.3f fps", fps)
}

func formatDuration(seconds float64) string {
	if !(seconds > 0) {
		return "unknown"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// formatBitRate renders ffprobe's bits-per-second string as kb/s.
func formatBitRate(value string) string {
	bps, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || bps <= 0 {
		return source.Unknown
	}
	return fmt.Sprintf("%.0f kb/s", bps/1000)
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return source.Unknown
	}
	return value
}

// stateLabel turns "pass2_running" into "Pass2 Running".
func stateLabel(state encoding.State) string {
	if state == "" {
		return "Validation"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(state), "_", " "))
}
