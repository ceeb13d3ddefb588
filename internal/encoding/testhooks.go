package encoding

import (
	"context"

	"o3enc/internal/media/ffmpeg"
)

// runFFmpeg is the transcoder runner used by the orchestrator. It is a
// package-level variable so tests can override it.
var runFFmpeg = ffmpeg.Run

// SetRunnerForTests overrides the ffmpeg runner during tests.
func SetRunnerForTests(fn func(context.Context, ffmpeg.Command) (ffmpeg.Result, error)) func() {
	previous := runFFmpeg
	runFFmpeg = fn
	return func() {
		runFFmpeg = previous
	}
}
