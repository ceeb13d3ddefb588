package encoding

import (
	"path/filepath"
	"strings"

	"o3enc/internal/fileutil"
	"o3enc/internal/services"
)

// validateJob checks everything that must hold before a process is spawned.
func validateJob(job Job) error {
	var missing []string
	if strings.TrimSpace(job.Preset.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(job.Preset.Encoder) == "" {
		missing = append(missing, "encoder")
	}
	if strings.TrimSpace(job.Preset.PixFmt) == "" {
		missing = append(missing, "pixfmt")
	}
	if strings.TrimSpace(job.Preset.Options) == "" {
		missing = append(missing, "options")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrEncoding, "encoding", "validate",
			"Preset is missing required fields: "+strings.Join(missing, ", "), nil)
	}
	if strings.TrimSpace(job.Input) == "" {
		return services.Wrap(services.ErrEncoding, "encoding", "validate", "Input path is empty", nil)
	}
	if strings.TrimSpace(job.Output) == "" {
		return services.Wrap(services.ErrEncoding, "encoding", "validate", "Output path is empty", nil)
	}
	if err := fileutil.EnsureWritableDir(filepath.Dir(job.Output)); err != nil {
		return services.Wrap(services.ErrEncoding, "encoding", "validate", "Output directory is not writable", err)
	}
	return nil
}
