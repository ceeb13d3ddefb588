package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"o3enc/internal/cleanup"
	"o3enc/internal/colorsettings"
	"o3enc/internal/config"
	"o3enc/internal/history"
	"o3enc/internal/logging"
	"o3enc/internal/media/source"
	"o3enc/internal/preflight"
	"o3enc/internal/presets"
	"o3enc/internal/prompt"
	"o3enc/internal/services"
)

// Options configures a Session.
type Options struct {
	Config   *config.Config
	Prompter prompt.Prompter
	Out      io.Writer
	Logger   *slog.Logger
	// History may be nil; encodes are then not recorded.
	History  *history.Store
	NewRunID func() string
}

// Session drives one interactive run: analyze the input, pick presets,
// confirm, encode, report.
type Session struct {
	cfg      *config.Config
	prompter prompt.Prompter
	out      io.Writer
	logger   *slog.Logger
	history  *history.Store
	newRunID func() string
}

// NewSession constructs a session.
func NewSession(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Session{
		cfg:      opts.Config,
		prompter: opts.Prompter,
		out:      out,
		logger:   logging.NewComponentLogger(opts.Logger, "workflow"),
		history:  opts.History,
		newRunID: newRunID,
	}
}

// Initialize verifies the engine binaries, loads presets and checks the
// environment. Preset loading sits between the two so hardware smoke tests
// only cover accelerators the presets actually use.
func (s *Session) Initialize(ctx context.Context) (*presets.Store, []preflight.Result, error) {
	if s.cfg == nil {
		return nil, nil, services.Wrap(services.ErrInitialization, "workflow", "initialize", "Configuration is missing", nil)
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, nil, services.Wrap(services.ErrInitialization, "workflow", "initialize", "Failed to create directories", err)
	}
	results, err := preflight.CheckBinaries(s.cfg)
	if err != nil {
		return nil, results, err
	}
	store, err := presets.Load(ctx, s.cfg.Paths.PresetsFile, presets.LoadOptions{
		BootstrapCommand: s.cfg.Tools.PresetsBootstrapCommand,
		Logger:           s.logger,
	})
	if err != nil {
		return nil, results, err
	}
	more, err := preflight.CheckEnvironment(ctx, s.cfg, store)
	results = append(results, more...)
	if err != nil {
		return nil, results, err
	}
	return store, results, nil
}

// Run processes input end to end. The returned Summary lists every job that
// ran; the error is non-nil when the session aborted or any job failed.
func (s *Session) Run(ctx context.Context, input string) (summary Summary, err error) {
	id := s.newRunID()
	ctx = services.WithRunID(ctx, id)
	logger := logging.WithContext(ctx, s.logger)
	summary.RunID = id

	if _, statErr := os.Stat(input); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return summary, services.Wrap(services.ErrInitialization, "workflow", "run", "Input file not found: "+input, statErr)
		}
		return summary, services.Wrap(services.ErrInitialization, "workflow", "run", "Cannot access input file: "+input, statErr)
	}

	store, _, err := s.Initialize(ctx)
	if err != nil {
		return summary, err
	}

	run, err := newRun(id, input, s.cfg.Paths.TempDir, s.cfg.Paths.OutputDir)
	if err != nil {
		return summary, services.Wrap(services.ErrInitialization, "workflow", "run", "Failed to create temp directory", err)
	}
	run.Presets = store
	defer s.finalCleanup(ctx, run)

	logger.Info("session started", logging.String("input", run.Input), logging.String("temp_dir", run.TempDir))

	info, err := source.Analyze(ctx, s.cfg.FFprobeBinary(), run.Input, s.logger)
	if err != nil {
		return summary, err
	}
	run.Source = info
	fmt.Fprintln(s.out, renderProperties("Input Video Properties", videoRows(info)))

	run.Color, err = colorsettings.NewResolver(s.prompter, s.out, s.logger).Resolve(ctx, info)
	if err != nil {
		return summary, err
	}
	fmt.Fprintln(s.out)
	for _, line := range run.Color.Summary() {
		fmt.Fprintln(s.out, line)
	}

	for {
		jobs, err := s.planJobs(ctx, run)
		if err != nil {
			if services.IsCanceled(err) || errors.Is(err, prompt.ErrEndOfInput) || !errors.Is(err, services.ErrPreset) {
				return summary, err
			}
			logger.Error(lastSegment(err), logging.String(logging.FieldEventType, "preset_error"), logging.Error(err))
			again, askErr := prompt.YesNo(ctx, s.prompter, "\nWould you like to try again? (Y/N): ", logger)
			if askErr != nil {
				return summary, inputError(askErr, services.ErrPreset, "retry")
			}
			if !again {
				return summary, err
			}
			continue
		}

		s.showPreview(run, jobs)
		proceed, err := prompt.YesNo(ctx, s.prompter, "\nProceed with encoding? (Y/N): ", logger)
		if err != nil {
			run.Names.Release(jobs.outputs()...)
			return summary, inputError(err, services.ErrEncoding, "confirm")
		}
		if !proceed {
			run.Names.Release(jobs.outputs()...)
			fmt.Fprintln(s.out, "\nReturning to queue selection...")
			continue
		}

		summary = s.execute(ctx, run, jobs)
		s.showResults(ctx, summary)
		return summary, summary.Err()
	}
}

// plannedJob is a preset paired with its reserved output path.
type plannedJob struct {
	preset presets.Preset
	output string
}

type plan []plannedJob

func (p plan) outputs() []string {
	paths := make([]string, 0, len(p))
	for _, job := range p {
		paths = append(paths, job.output)
	}
	return paths
}

func (s *Session) planJobs(ctx context.Context, run *Run) (plan, error) {
	selected, err := s.selectPresets(ctx, run.Presets)
	if err != nil {
		return nil, err
	}
	base, err := s.chooseBaseName(ctx, run.Input)
	if err != nil {
		return nil, err
	}
	jobs := make(plan, 0, len(selected))
	for _, p := range selected {
		output, err := run.Names.Resolve(base, p)
		if err != nil {
			run.Names.Release(jobs.outputs()...)
			return nil, err
		}
		jobs = append(jobs, plannedJob{preset: p, output: output})
	}
	return jobs, nil
}

func (s *Session) showPreview(run *Run, jobs plan) {
	fmt.Fprintln(s.out, "\nEncoding Preview:")
	for _, job := range jobs {
		fmt.Fprintln(s.out, renderProperties("Preset: "+job.preset.Name, previewRows(job.output, job.preset, run.Source)))
	}
}

func (s *Session) finalCleanup(ctx context.Context, run *Run) {
	manager := cleanup.New(cleanup.Options{
		TempDir:     run.TempDir,
		WorkDir:     s.cfg.Paths.WorkDir,
		MaxAttempts: s.cfg.Cleanup.MaxAttempts,
		RetryDelay:  time.Duration(s.cfg.Cleanup.RetryDelayMS) * time.Millisecond,
		Logger:      s.logger,
	})
	report := manager.Run(context.WithoutCancel(ctx))
	for _, warning := range report.Warnings() {
		fmt.Fprintln(s.out, "Warning: "+warning)
	}
}
