package loudness

import (
	"context"

	"o3enc/internal/media/ffmpeg"
)

// SetRunnerForTests swaps the ffmpeg runner and returns a restore function.
func SetRunnerForTests(fn func(context.Context, ffmpeg.Command) (ffmpeg.Result, error)) func() {
	prev := runFFmpeg
	if fn == nil {
		runFFmpeg = ffmpeg.Run
	} else {
		runFFmpeg = fn
	}
	return func() {
		runFFmpeg = prev
	}
}
