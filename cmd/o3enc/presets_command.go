package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"o3enc/internal/presets"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the configured encoding presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			store, err := presets.Load(cmd.Context(), cfg.Paths.PresetsFile, presets.LoadOptions{
				BootstrapCommand: cfg.Tools.PresetsBootstrapCommand,
				Logger:           logger,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, store.Len())
			for i, p := range store.All() {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					p.Name,
					p.HWAccel,
					p.Encoder,
					p.Container,
					orDash(p.Height),
					orDash(p.FPS),
					p.PixFmt,
					formatLoudness(p),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Presets file: %s\n", store.Path())
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Name", "HWAccel", "Encoder", "Container", "Height", "FPS", "PixFmt", "Loudness"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
}

func formatLoudness(p presets.Preset) string {
	return fmt.Sprintf("I=%s LRA=%s TP=%s",
		strconv.FormatFloat(p.TargetLUFS, 'f', -1, 64),
		strconv.FormatFloat(p.TargetLRA, 'f', -1, 64),
		strconv.FormatFloat(p.TargetTP, 'f', -1, 64))
}
