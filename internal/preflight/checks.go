package preflight

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"o3enc/internal/deps"
	"o3enc/internal/encoding"
)

var commandContext = exec.CommandContext

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckEngine reports the availability of the transcoder and prober.
func CheckEngine(ffmpegBinary, ffprobeBinary string) []Result {
	statuses := deps.CheckBinaries(deps.EngineRequirements(ffmpegBinary, ffprobeBinary))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Path})
			continue
		}
		results = append(results, Result{Name: status.Name, Detail: status.Detail})
	}
	return results
}

// CheckHWAccel decodes one synthetic frame with the given hardware
// accelerator to prove the driver stack works.
func CheckHWAccel(ctx context.Context, ffmpegBinary, hwaccel string) Result {
	name := "hwaccel " + hwaccel
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, encoding.HWAccelArgs(hwaccel)...)
	args = append(args,
		"-f", "lavfi",
		"-i", "color=black:s=1280x720",
		"-frames:v", "1",
		"-an",
		"-f", "null", "-",
	)
	cmd := commandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s acceleration not available: %s", hwaccel, detail)}
	}
	return Result{Name: name, Passed: true, Detail: "one-frame test decode succeeded"}
}

// EngineVersion returns the first line of `<binary> -version`, or "" when the
// binary cannot be run.
func EngineVersion(ctx context.Context, binary string) string {
	output, err := commandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line)
}
