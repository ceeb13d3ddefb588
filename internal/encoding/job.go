package encoding

import (
	"time"

	"o3enc/internal/cleanup"
	"o3enc/internal/media/source"
	"o3enc/internal/presets"
)

// Job is one preset encode of the run's input.
type Job struct {
	Input       string
	Output      string
	Preset      presets.Preset
	Filters     []string
	AudioFilter string
	Source      source.Info
}

// Outcome describes a finished job, successful or not.
type Outcome struct {
	Output  string
	States  []State
	Size    int64
	Elapsed time.Duration
	Cleanup cleanup.Report
}

// Final returns the last visited state.
func (o Outcome) Final() State {
	if len(o.States) == 0 {
		return ""
	}
	return o.States[len(o.States)-1]
}

// Succeeded reports whether the job verified its output.
func (o Outcome) Succeeded() bool {
	for _, state := range o.States {
		if state == StateVerified {
			return true
		}
	}
	return false
}
