package filterchain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"o3enc/internal/media/source"
	"o3enc/internal/presets"
	"o3enc/internal/services"
)

// FPSTolerance is the largest frame rate difference treated as a match.
const FPSTolerance = 0.01

// Build returns the ordered video filter stages for preset applied to a
// source described by info. The pixel format stage always comes first and a
// non-empty colorFilter always comes last.
func Build(preset presets.Preset, info source.Info, colorFilter string) ([]string, error) {
	pixfmt := strings.TrimSpace(preset.PixFmt)
	if pixfmt == "" {
		return nil, services.Wrap(services.ErrEncoding, "filterchain", "build", "Missing required field in preset: pixfmt", nil)
	}
	stages := []string{"format=" + pixfmt}

	scale, err := scaleStage(preset, info)
	if err != nil {
		return nil, err
	}
	if scale != "" {
		stages = append(stages, scale)
	}

	fps, err := fpsStage(preset, info)
	if err != nil {
		return nil, err
	}
	if fps != "" {
		stages = append(stages, fps)
	}

	if colorFilter = strings.TrimSpace(colorFilter); colorFilter != "" {
		stages = append(stages, colorFilter)
	}
	return stages, nil
}

// Join renders stages as a single -vf argument.
func Join(stages []string) string {
	return strings.Join(stages, ",")
}

// OutputSize returns the frame size the preset produces from info.
func OutputSize(preset presets.Preset, info source.Info) (int, int, error) {
	height, ok, err := TargetHeight(preset)
	if err != nil {
		return 0, 0, err
	}
	if !ok || height == info.Height {
		return info.Width, info.Height, nil
	}
	width, err := scaledWidth(info, height)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// OutputFPS returns the frame rate the preset produces from info.
func OutputFPS(preset presets.Preset, info source.Info) (float64, error) {
	fps, ok, err := TargetFPS(preset)
	if err != nil {
		return 0, err
	}
	if !ok || math.Abs(fps-info.FPS) <= FPSTolerance {
		return info.FPS, nil
	}
	return fps, nil
}

// TargetHeight parses the preset height. ok is false when none is set.
func TargetHeight(preset presets.Preset) (int, bool, error) {
	raw := strings.TrimSpace(preset.Height)
	if raw == "" {
		return 0, false, nil
	}
	height, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, services.Wrap(services.ErrEncoding, "filterchain", "height",
			fmt.Sprintf("Invalid height value in preset %s: %q", preset.Name, raw), err)
	}
	if height <= 0 {
		return 0, false, services.Wrap(services.ErrEncoding, "filterchain", "height",
			fmt.Sprintf("Invalid height value in preset %s: %d", preset.Name, height), nil)
	}
	return height, true, nil
}

// TargetFPS parses the preset frame rate. ok is false when none is set.
func TargetFPS(preset presets.Preset) (float64, bool, error) {
	raw := strings.TrimSpace(preset.FPS)
	if raw == "" {
		return 0, false, nil
	}
	fps, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, false, services.Wrap(services.ErrEncoding, "filterchain", "fps",
			fmt.Sprintf("Invalid FPS value in preset %s: %q", preset.Name, raw), err)
	}
	if fps <= 0 {
		return 0, false, services.Wrap(services.ErrEncoding, "filterchain", "fps",
			fmt.Sprintf("Invalid FPS value in preset %s: %s", preset.Name, raw), nil)
	}
	return fps, true, nil
}

func scaleStage(preset presets.Preset, info source.Info) (string, error) {
	height, ok, err := TargetHeight(preset)
	if err != nil || !ok || height == info.Height {
		return "", err
	}
	width, err := scaledWidth(info, height)
	if err != nil {
		return "", err
	}
	flags := strings.TrimSpace(preset.ScaleFlags)
	if flags == "" {
		flags = "lanczos"
	}
	return fmt.Sprintf("scale=%d:%d:flags=%s", width, height, flags), nil
}

func scaledWidth(info source.Info, height int) (int, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return 0, services.Wrap(services.ErrEncoding, "filterchain", "scale",
			fmt.Sprintf("Invalid source dimensions: %dx%d", info.Width, info.Height), nil)
	}
	width := int(math.Round(float64(info.Width) * float64(height) / float64(info.Height)))
	if width <= 0 {
		return 0, services.Wrap(services.ErrEncoding, "filterchain", "scale",
			fmt.Sprintf("Computed width is not positive for height %d", height), nil)
	}
	return width, nil
}

func fpsStage(preset presets.Preset, info source.Info) (string, error) {
	fps, ok, err := TargetFPS(preset)
	if err != nil || !ok {
		return "", err
	}
	if math.Abs(fps-info.FPS) <= FPSTolerance {
		return "", nil
	}
	return "fps=" + strings.TrimSpace(preset.FPS), nil
}
