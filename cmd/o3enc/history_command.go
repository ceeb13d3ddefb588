package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"o3enc/internal/fileutil"
	"o3enc/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent encodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "Encode history is disabled")
				return nil
			}
			store, err := ctx.history(cmd.Context())
			if err != nil {
				return err
			}

			var entries []history.Entry
			if runID != "" {
				entries, err = store.ForRun(cmd.Context(), runID)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No encodes recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
					e.Preset,
					string(e.Status),
					e.FinalState,
					fmt.Sprintf("%.2f", fileutil.SizeMB(e.SizeBytes)),
					e.Elapsed.Round(time.Second).String(),
					e.Output,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "When", "Preset", "Status", "State", "Size MB", "Elapsed", "Output"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Only show encodes from this run ID")
	return cmd
}
