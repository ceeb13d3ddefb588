package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"o3enc/internal/cleanup"
	"o3enc/internal/encoding"
	"o3enc/internal/filterchain"
	"o3enc/internal/history"
	"o3enc/internal/logging"
	"o3enc/internal/loudness"
	"o3enc/internal/media/ffmpeg"
	"o3enc/internal/services"
)

// JobResult is one preset's encode in a finished run.
type JobResult struct {
	Preset  string
	Output  string
	Outcome encoding.Outcome
	Err     error
}

// Summary reports a run's jobs in execution order.
type Summary struct {
	RunID       string
	Jobs        []JobResult
	interrupted error
}

// Failed returns the jobs that did not verify their output.
func (s Summary) Failed() []JobResult {
	var failed []JobResult
	for _, job := range s.Jobs {
		if job.Err != nil {
			failed = append(failed, job)
		}
	}
	return failed
}

// Err summarizes the run: the interrupt if one stopped it, otherwise an
// encoding error when any job failed.
func (s Summary) Err() error {
	if s.interrupted != nil {
		return s.interrupted
	}
	failed := s.Failed()
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrEncoding, "workflow", "execute",
		fmt.Sprintf("%d of %d encodes failed", len(failed), len(s.Jobs)), failed[0].Err)
}

func (s *Session) execute(ctx context.Context, run *Run, jobs plan) Summary {
	logger := logging.WithContext(ctx, s.logger)
	summary := Summary{RunID: run.ID}

	run.Audio = s.analyzeAudio(ctx, run, jobs[0].preset.TargetLUFS, jobs[0].preset.TargetLRA, jobs[0].preset.TargetTP)
	if ctx.Err() != nil {
		summary.interrupted = ctx.Err()
		return summary
	}

	orchestrator := encoding.NewOrchestrator(encoding.Options{
		FFmpeg:  s.cfg.FFmpegBinary(),
		WorkDir: s.cfg.Paths.WorkDir,
		Cleaner: cleanup.New(cleanup.Options{
			WorkDir:     s.cfg.Paths.WorkDir,
			MaxAttempts: s.cfg.Cleanup.MaxAttempts,
			RetryDelay:  time.Duration(s.cfg.Cleanup.RetryDelayMS) * time.Millisecond,
			Logger:      s.logger,
		}),
		Observer: s.announce,
		Progress: passPrinter(s.out, isTerminal(s.out)),
		Logger:   s.logger,
	})

	for _, job := range jobs {
		fmt.Fprintf(s.out, "\nProcessing Preset: [%s]\n", job.preset.Name)
		result := JobResult{Preset: job.preset.Name, Output: job.output}

		filters, err := filterchain.Build(job.preset, run.Source, run.Color.Filter())
		if err != nil {
			result.Outcome = orchestrator.Abort(ctx, encoding.Job{Input: run.Input, Output: job.output, Preset: job.preset}, err)
		} else {
			audioFilter := ""
			if run.Audio.Found {
				targets := loudness.Targets{I: job.preset.TargetLUFS, LRA: job.preset.TargetLRA, TP: job.preset.TargetTP}
				audioFilter = loudness.ApplyFilter(targets, run.Audio.Measurement)
			}
			result.Outcome, err = orchestrator.Encode(ctx, encoding.Job{
				Input:       run.Input,
				Output:      job.output,
				Preset:      job.preset,
				Filters:     filters,
				AudioFilter: audioFilter,
				Source:      run.Source,
			})
		}
		result.Err = err
		if result.Outcome.Output != "" {
			result.Output = result.Outcome.Output
		}
		for _, warning := range result.Outcome.Cleanup.Warnings() {
			fmt.Fprintln(s.out, "Warning: "+warning)
		}

		if services.IsCanceled(err) {
			summary.interrupted = err
			summary.Jobs = append(summary.Jobs, result)
			s.record(ctx, run, result)
			return summary
		}
		if err != nil {
			logger.Error("encode failed",
				logging.String(logging.FieldEventType, "encode_failed"),
				logging.String("preset", job.preset.Name),
				logging.Error(err))
		}
		summary.Jobs = append(summary.Jobs, result)
		s.record(ctx, run, result)
	}
	return summary
}

// analyzeAudio measures loudness once for the whole run. Failures only
// disable normalization.
func (s *Session) analyzeAudio(ctx context.Context, run *Run, i, lra, tp float64) loudness.Result {
	logger := logging.WithContext(ctx, s.logger)
	fmt.Fprintln(s.out, "\nAnalyzing audio loudness...")
	analyzer := loudness.NewAnalyzer(loudness.Options{
		FFmpeg:        s.cfg.FFmpegBinary(),
		FFprobe:       s.cfg.FFprobeBinary(),
		TranscriptDir: run.TempDir,
		Progress:      measurementPrinter(s.out, isTerminal(s.out)),
		Logger:        s.logger,
	})
	result, err := analyzer.Analyze(ctx, run.Input, loudness.Targets{I: i, LRA: lra, TP: tp})
	if isTerminal(s.out) {
		fmt.Fprintln(s.out)
	}
	if err != nil {
		if ctx.Err() == nil {
			logging.WarnWithContext(logger, "audio analysis failed", "audio_analysis_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "encoding without loudness normalization"))
			fmt.Fprintln(s.out, "Warning: Audio analysis failed, continuing without loudness normalization")
		}
		return loudness.Result{}
	}
	if !result.Found {
		fmt.Fprintln(s.out, "No audio track found, encoding video only")
		return result
	}
	fmt.Fprintln(s.out, renderProperties("Audio Analysis", audioRows(result)))
	return result
}

func (s *Session) record(ctx context.Context, run *Run, result JobResult) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		RunID:           run.ID,
		Input:           run.Input,
		Preset:          result.Preset,
		Output:          result.Output,
		Status:          history.StatusSucceeded,
		FinalState:      string(result.Outcome.Final()),
		SizeBytes:       result.Outcome.Size,
		Elapsed:         result.Outcome.Elapsed,
		LoudnessApplied: run.Audio.Found,
	}
	if result.Err != nil {
		entry.Status = history.StatusFailed
		entry.Error = result.Err.Error()
	}
	if _, err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "failed to record encode history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from encode history"))
	}
}

func (s *Session) announce(t encoding.Transition) {
	switch t.To {
	case encoding.StatePass1Running:
		fmt.Fprintln(s.out, "Starting first pass...")
	case encoding.StatePass2Running:
		fmt.Fprintln(s.out, "Starting second pass...")
	case encoding.StatePass1Done, encoding.StatePass2Done:
		if isTerminal(s.out) {
			fmt.Fprintln(s.out)
		}
	}
}

// passPrinter rewrites a single status line while a pass runs. Nothing
// is printed when output is not a terminal.
func passPrinter(w io.Writer, interactive bool) func(int, ffmpeg.Progress) {
	if !interactive {
		return nil
	}
	return func(pass int, update ffmpeg.Progress) {
		fmt.Fprintf(w, "\r  Pass %d: time=%s speed=%s   ", pass, update.Time.Truncate(time.Second), update.Speed)
	}
}

// measurementPrinter is passPrinter for the loudness measurement.
func measurementPrinter(w io.Writer, interactive bool) func(ffmpeg.Progress) {
	if !interactive {
		return nil
	}
	return func(update ffmpeg.Progress) {
		fmt.Fprintf(w, "\r  Analyzing: time=%s speed=%s   ", update.Time.Truncate(time.Second), update.Speed)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func (s *Session) showResults(ctx context.Context, summary Summary) {
	fmt.Fprintln(s.out, "\nEncoding Results:")
	for _, job := range summary.Jobs {
		if job.Err == nil {
			fmt.Fprintf(s.out, "[%s] completed\n", job.Preset)
			fmt.Fprintln(s.out, renderProperties("Output Details", resultRows(ctx, s.cfg.FFprobeBinary(), job.Output, job.Outcome.Size)))
			continue
		}
		fmt.Fprintf(s.out, "[%s] failed during %s: %s\n", job.Preset, stateLabel(failedIn(job.Outcome)), lastSegment(job.Err))
	}
	if failed := summary.Failed(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, job := range failed {
			names = append(names, job.Preset)
		}
		fmt.Fprintf(s.out, "\n%d of %d encodes failed: %s\n", len(failed), len(summary.Jobs), strings.Join(names, ", "))
	}
}

// failedIn returns the last state reached before failure.
func failedIn(outcome encoding.Outcome) encoding.State {
	states := outcome.States
	if n := len(states); n > 0 && states[n-1] == encoding.StateFailed {
		states = states[:n-1]
	}
	if len(states) == 0 {
		return ""
	}
	return states[len(states)-1]
}
