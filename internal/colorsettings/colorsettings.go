package colorsettings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"o3enc/internal/logging"
	"o3enc/internal/media/source"
	"o3enc/internal/prompt"
	"o3enc/internal/services"
)

// Interpretation choices offered when the source carries no color metadata.
const (
	Auto    = "auto"
	BT601   = "bt601-6-625"
	BT709   = "bt709"
	RangeTV = "tv"
	RangePC = "pc"
)

var (
	spaceChoices = []string{Auto, BT601, BT709}
	rangeChoices = []string{Auto, RangeTV, RangePC}
)

const spaceMenu = `
Select input color space interpretation:
  -----------------------------------------------
  [0] Auto (No color space conversion)
      - Let FFmpeg automatically detect the colorspace
      - Not recommended as detection may be unreliable

  [1] Standard Definition (BT.601-6-625)
      - For SD content

  [2] High Definition (BT.709)
      - For HD content
      - Recommended for most modern HD/4K
  -----------------------------------------------

`

const rangeMenu = `
Select input color range interpretation:
  -----------------------------------------------
  [0] Auto (No range conversion)
      - Let FFmpeg automatically detect the range
      - Not recommended as detection may be unreliable

  [1] TV/Limited Range (16-235)
      - For broadcast content

  [2] PC/Full Range (0-255)
      - For full dynamic range
  -----------------------------------------------

`

const selectionQuestion = "Enter your selection (0-2): "

// Decision is the colorspace/range interpretation for one run.
type Decision struct {
	ColorSpace string
	ColorRange string
	// Detected is set when both values came from the source metadata.
	Detected bool
}

// Filter returns the colorspace conversion filter, or "" when none applies.
func (d Decision) Filter() string {
	if d.Detected || d.ColorSpace == "" || d.ColorSpace == Auto {
		return ""
	}
	filter := "colorspace=all=bt709:iall=" + d.ColorSpace
	if d.ColorRange != "" && d.ColorRange != Auto {
		filter += ":range=" + d.ColorRange + ":irange=" + d.ColorRange
	}
	return filter
}

// Summary returns the operator-facing description of the decision.
func (d Decision) Summary() []string {
	switch {
	case d.Detected:
		return []string{
			"Detected input color space: " + d.ColorSpace,
			"Detected input color range: " + d.ColorRange,
			"Using detected settings (no conversion needed)",
		}
	case d.ColorSpace == Auto:
		return []string{
			"Input Color Space: Auto detection",
			"Input Color Range: Auto detection",
			"Note: This may lead to incorrect color reproduction",
		}
	default:
		return []string{
			"Input Color Space: " + d.ColorSpace,
			"Input Color Range: " + d.ColorRange,
			"Applied Filter: " + d.Filter(),
		}
	}
}

// Resolver decides how the source colors are interpreted, asking the
// operator only when the source is silent.
type Resolver struct {
	prompter prompt.Prompter
	out      io.Writer
	logger   *slog.Logger
}

// NewResolver wires the prompter and the writer menus are printed to.
func NewResolver(p prompt.Prompter, out io.Writer, logger *slog.Logger) *Resolver {
	if out == nil {
		out = io.Discard
	}
	return &Resolver{prompter: p, out: out, logger: logging.NewComponentLogger(logger, "color")}
}

// Resolve returns the decision for info.
func (r *Resolver) Resolve(ctx context.Context, info source.Info) (Decision, error) {
	if info.HasColorSpace() {
		decision := Decision{ColorSpace: info.ColorSpace, ColorRange: info.ColorRange, Detected: true}
		r.logger.Info("using detected color settings",
			logging.String("colorspace", decision.ColorSpace),
			logging.String("color_range", decision.ColorRange))
		return decision, nil
	}

	r.logger.Info("no input color information detected")
	fmt.Fprint(r.out, spaceMenu)
	idx, err := prompt.Choice(ctx, r.prompter, selectionQuestion, len(spaceChoices)-1, r.logger)
	if err != nil {
		return Decision{}, r.promptError(err)
	}
	decision := Decision{ColorSpace: spaceChoices[idx], ColorRange: Auto}

	if decision.ColorSpace != Auto && !info.HasColorRange() {
		fmt.Fprint(r.out, rangeMenu)
		idx, err = prompt.Choice(ctx, r.prompter, selectionQuestion, len(rangeChoices)-1, r.logger)
		if err != nil {
			return Decision{}, r.promptError(err)
		}
		decision.ColorRange = rangeChoices[idx]
	}

	if decision.ColorSpace == Auto {
		logging.WarnWithContext(r.logger, "color space left to auto detection", "color_auto",
			logging.String(logging.FieldImpact, "this may lead to incorrect color reproduction"))
	}
	r.logger.Info("user selected color settings",
		logging.String("colorspace", decision.ColorSpace),
		logging.String("color_range", decision.ColorRange),
		logging.String("filter", decision.Filter()))
	return decision, nil
}

func (r *Resolver) promptError(err error) error {
	if errors.Is(err, context.Canceled) {
		r.logger.Info("operation cancelled by user")
		return err
	}
	return services.Wrap(services.ErrEncoding, "color", "prompt", "Failed to get color settings", err)
}
