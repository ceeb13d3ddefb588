package source

import (
	"context"

	"o3enc/internal/media/ffprobe"
)

// SetProbeForTests swaps the video probe and returns a restore function.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	prev := probeVideo
	if fn == nil {
		probeVideo = ffprobe.InspectVideo
	} else {
		probeVideo = fn
	}
	return func() {
		probeVideo = prev
	}
}
