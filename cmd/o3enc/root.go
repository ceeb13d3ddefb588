package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"o3enc/internal/preflight"
	"o3enc/internal/prompt"
	"o3enc/internal/workflow"
)

var errInputRequired = errors.New("input file required")

func newRootCommand() *cobra.Command {
	var configFlag string
	var initFlag bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "o3enc [input]",
		Short:         "Interactive two-pass ffmpeg encoder",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if initFlag {
				return runInit(cmd, ctx)
			}
			if len(args) == 0 {
				if err := cmd.Help(); err != nil {
					return err
				}
				return errInputRequired
			}
			return runSession(cmd, ctx, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&initFlag, "init", false, "Check tools and create the presets file, then exit")

	rootCmd.AddCommand(newPresetsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func newSession(cmd *cobra.Command, ctx *commandContext) (*workflow.Session, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return nil, err
	}
	store, err := ctx.history(cmd.Context())
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	return workflow.NewSession(workflow.Options{
		Config:   cfg,
		Prompter: prompt.NewTerminal(cmd.InOrStdin(), out),
		Out:      out,
		Logger:   logger,
		History:  store,
	}), nil
}

func runInit(cmd *cobra.Command, ctx *commandContext) error {
	session, err := newSession(cmd, ctx)
	if err != nil {
		return err
	}
	store, results, err := session.Initialize(cmd.Context())
	out := cmd.OutOrStdout()
	if len(results) > 0 {
		rows := make([][]string, 0, len(results))
		for _, result := range results {
			rows = append(rows, []string{result.Name, passLabel(result), result.Detail})
		}
		fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
	}
	if err != nil {
		return err
	}
	cfg, _ := ctx.ensureConfig()
	if version := preflight.EngineVersion(cmd.Context(), cfg.FFmpegBinary()); version != "" {
		fmt.Fprintln(out, version)
	}
	fmt.Fprintf(out, "Loaded %d presets from %s\n", store.Len(), store.Path())
	fmt.Fprintln(out, "Initialization complete")
	return nil
}

func passLabel(result preflight.Result) string {
	if result.Passed {
		return "ok"
	}
	return "FAILED"
}

func runSession(cmd *cobra.Command, ctx *commandContext, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errInputRequired
	}
	session, err := newSession(cmd, ctx)
	if err != nil {
		return err
	}
	_, err = session.Run(cmd.Context(), input)
	return err
}
