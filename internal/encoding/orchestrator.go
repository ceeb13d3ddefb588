package encoding

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"o3enc/internal/cleanup"
	"o3enc/internal/fileutil"
	"o3enc/internal/logging"
	"o3enc/internal/media/ffmpeg"
	"o3enc/internal/services"
)

// Cleaner removes transient artifacts after each job.
type Cleaner interface {
	Run(ctx context.Context) cleanup.Report
}

// Options configures an Orchestrator.
type Options struct {
	FFmpeg string
	// WorkDir is the transcoder's cwd; pass logs are written there.
	WorkDir  string
	Cleaner  Cleaner
	Observer func(Transition)
	Progress func(pass int, update ffmpeg.Progress)
	Logger   *slog.Logger
}

// Orchestrator runs two-pass encodes one at a time.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "encoding")}
}

type run struct {
	o       *Orchestrator
	ctx     context.Context
	logger  *slog.Logger
	outcome *Outcome
	state   State
}

func (r *run) enter(to State, err error) {
	from := r.state
	if from != "" && !CanTransition(from, to) {
		r.logger.Error("illegal encode state transition",
			logging.String("from", string(from)),
			logging.String("to", string(to)))
	}
	r.state = to
	r.outcome.States = append(r.outcome.States, to)
	r.logger.Debug("encode state", logging.String("from", string(from)), logging.String("to", string(to)))
	if r.o.opts.Observer != nil {
		r.o.opts.Observer(Transition{From: from, To: to, Err: err})
	}
}

// Encode validates job, runs both passes, verifies the output and always
// cleans up. On failure any partial output is removed and the original error
// is returned; cleanup problems only appear in Outcome.Cleanup.
func (o *Orchestrator) Encode(ctx context.Context, job Job) (outcome Outcome, err error) {
	started := time.Now()
	ctx = services.WithPreset(ctx, job.Preset.Name)
	logger := logging.WithContext(ctx, o.logger)
	r := &run{o: o, ctx: ctx, logger: logger, outcome: &outcome}
	outcome.Output = job.Output

	defer func() {
		if err != nil {
			r.enter(StateFailed, err)
			if job.Output != "" && r.spawned() {
				if rmErr := fileutil.RemoveIfExists(job.Output); rmErr != nil {
					logging.WarnWithContext(logger, "failed to remove partial output", "encode_partial_remove_failed",
						logging.String("path", job.Output),
						logging.Error(rmErr),
						logging.String(logging.FieldImpact, "incomplete file left in output directory"),
					)
				}
			}
		}
		outcome.Cleanup = o.cleanup(ctx, logger)
		if err == nil {
			r.enter(StateCleanedUp, nil)
		}
		outcome.Elapsed = time.Since(started)
	}()

	if err := validateJob(job); err != nil {
		return outcome, err
	}
	options, err := SplitOptions(job.Preset.Options)
	if err != nil {
		return outcome, err
	}
	if job, err = absolutize(job); err != nil {
		return outcome, err
	}
	outcome.Output = job.Output
	r.enter(StateValidated, nil)

	workDir := strings.TrimSpace(o.opts.WorkDir)
	if workDir == "" {
		workDir = "."
	}
	lock, err := lockPassLog(ctx, workDir, logger)
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		return outcome, services.Wrap(services.ErrEncoding, "encoding", "lock", "Work directory is busy", err)
	}
	passErr := o.runPasses(r, job, options, workDir)
	if unlockErr := lock.Unlock(); unlockErr != nil {
		logger.Debug("pass log unlock failed", logging.Error(unlockErr))
	}
	if passErr != nil {
		return outcome, passErr
	}

	size, err := fileutil.NonEmptyFile(job.Output)
	if err != nil {
		return outcome, services.Wrap(services.ErrEncoding, "encoding", "verify", "Output file missing or empty", err)
	}
	outcome.Size = size
	r.enter(StateVerified, nil)
	logger.Info("encode completed",
		logging.String("output", job.Output),
		logging.Int64("size_bytes", size),
		logging.Duration("elapsed", time.Since(started)),
	)
	return outcome, nil
}

// Abort records a job that failed before it could be encoded, typically
// while planning its filters. It runs the same cleanup Encode would.
func (o *Orchestrator) Abort(ctx context.Context, job Job, cause error) Outcome {
	ctx = services.WithPreset(ctx, job.Preset.Name)
	logger := logging.WithContext(ctx, o.logger)
	outcome := Outcome{Output: job.Output}
	r := &run{o: o, ctx: ctx, logger: logger, outcome: &outcome}
	r.enter(StateFailed, cause)
	outcome.Cleanup = o.cleanup(ctx, logger)
	return outcome
}

func (o *Orchestrator) runPasses(r *run, job Job, options []string, workDir string) error {
	passes := []struct {
		number  int
		running State
		done    State
		args    []string
		failure string
	}{
		{1, StatePass1Running, StatePass1Done, Pass1Args(job, options), "First pass encoding failed"},
		{2, StatePass2Running, StatePass2Done, Pass2Args(job, options), "Second pass encoding failed"},
	}
	for _, pass := range passes {
		r.enter(pass.running, nil)
		r.logger.Info("starting encode pass",
			logging.Int("pass", pass.number),
			logging.String("encoder", job.Preset.Encoder),
			logging.String("command", o.binary()+" "+strings.Join(pass.args, " ")),
		)
		_, err := runFFmpeg(r.ctx, ffmpeg.Command{
			Binary:   o.binary(),
			Args:     pass.args,
			Dir:      workDir,
			Progress: o.progressFunc(r.logger, pass.number, job.Source.Duration),
		})
		if err != nil {
			if r.ctx.Err() != nil {
				return r.ctx.Err()
			}
			return services.Wrap(services.ErrEncoding, "encoding", "pass "+strconv.Itoa(pass.number), pass.failure, err)
		}
		r.enter(pass.done, nil)
	}
	return nil
}

func (o *Orchestrator) progressFunc(logger *slog.Logger, pass int, duration float64) func(ffmpeg.Progress) {
	sampler := logging.NewProgressSampler(25)
	phase := "pass" + strconv.Itoa(pass)
	return func(update ffmpeg.Progress) {
		if o.opts.Progress != nil {
			o.opts.Progress(pass, update)
		}
		if duration <= 0 {
			return
		}
		percent := update.Time.Seconds() / duration * 100
		if sampler.ShouldLog(percent, phase) {
			logger.Debug("encode progress",
				logging.Int("pass", pass),
				logging.Float64("percent", percent),
				logging.String("speed", update.Speed),
			)
		}
	}
}

func (o *Orchestrator) cleanup(ctx context.Context, logger *slog.Logger) cleanup.Report {
	if o.opts.Cleaner == nil {
		return cleanup.Report{}
	}
	report := o.opts.Cleaner.Run(context.WithoutCancel(ctx))
	for _, line := range report.Warnings() {
		logging.WarnWithContext(logger, "cleanup incomplete", "encode_cleanup_incomplete",
			logging.String("detail", line),
			logging.String(logging.FieldImpact, "transient files left in work directory"),
		)
	}
	return report
}

func (o *Orchestrator) binary() string {
	if bin := strings.TrimSpace(o.opts.FFmpeg); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// spawned reports whether a transcoder process may have written output.
func (r *run) spawned() bool {
	for _, state := range r.outcome.States {
		if state == StatePass2Running {
			return true
		}
	}
	return false
}

// absolutize pins paths so the transcoder's cwd does not change them.
func absolutize(job Job) (Job, error) {
	input, err := filepath.Abs(job.Input)
	if err != nil {
		return job, services.Wrap(services.ErrEncoding, "encoding", "validate", "Cannot resolve input path", err)
	}
	output, err := filepath.Abs(job.Output)
	if err != nil {
		return job, services.Wrap(services.ErrEncoding, "encoding", "validate", "Cannot resolve output path", err)
	}
	job.Input = input
	job.Output = output
	return job, nil
}
