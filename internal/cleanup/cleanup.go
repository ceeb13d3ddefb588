package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"o3enc/internal/logging"
)

// DefaultPatterns match the transient files two-pass encoding leaves in the
// working directory.
var DefaultPatterns = []string{
	"ffmpeg2pass-*.log",
	"ffmpeg2pass-*.log.*",
	"*.mbtree",
	"*.temp",
	"*.stats",
}

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// ErrLocked reports a file another process still holds.
var ErrLocked = errors.New("file is locked by another process")

// Options configures a Manager.
type Options struct {
	// TempDir is the run-private directory removed recursively.
	TempDir string
	// WorkDir is scanned for Patterns.
	WorkDir     string
	Patterns    []string
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

// Manager removes per-run temp data and two-pass leftovers.
type Manager struct {
	opts   Options
	logger *slog.Logger

	afterAttempt func(attempt int, pending []string)
}

// FileError pairs a path with the reason it could not be removed.
type FileError struct {
	Path  string
	Error error
}

// Report summarizes one cleanup run. Cleanup never fails; anything it could
// not remove is listed here.
type Report struct {
	TempDirRemoved bool
	Removed        []string
	Leftover       []FileError
	Errors         []FileError
	Attempts       int
}

// Clean reports whether every target was removed.
func (r Report) Clean() bool {
	return len(r.Leftover) == 0 && len(r.Errors) == 0
}

// Warnings renders the problems in the report as user-facing lines.
func (r Report) Warnings() []string {
	var lines []string
	for _, item := range r.Errors {
		lines = append(lines, fmt.Sprintf("Could not remove %s: %v", item.Path, item.Error))
	}
	for _, item := range r.Leftover {
		lines = append(lines, fmt.Sprintf("Could not remove %s after %d attempts: %v", filepath.Base(item.Path), r.Attempts, item.Error))
	}
	return lines
}

// New constructs a Manager, applying defaults for unset retry settings.
func New(opts Options) *Manager {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	return &Manager{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "cleanup")}
}

// Run removes the temp dir, then deletes pattern matches in the work dir,
// retrying files that are still locked up to MaxAttempts times.
func (m *Manager) Run(ctx context.Context) Report {
	logger := logging.WithContext(ctx, m.logger)
	var report Report

	if dir := strings.TrimSpace(m.opts.TempDir); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			report.Errors = append(report.Errors, FileError{Path: dir, Error: err})
			logging.WarnWithContext(logger, "failed to remove temp directory", "cleanup_tempdir_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		} else {
			report.TempDirRemoved = true
			logger.Debug("removed temp directory", logging.String("path", dir))
		}
	}

	workDir := strings.TrimSpace(m.opts.WorkDir)
	if workDir == "" {
		return report
	}

	pending := m.scan(workDir, &report)
	var deferred map[string]error
	for attempt := 1; attempt <= m.opts.MaxAttempts && len(pending) > 0; attempt++ {
		report.Attempts = attempt
		deferred = make(map[string]error)
		var next []string
		for _, path := range pending {
			err := removeUnlocked(path)
			switch {
			case err == nil:
				report.Removed = append(report.Removed, path)
				logger.Debug("removed transient file", logging.String("path", path))
			case errors.Is(err, fs.ErrNotExist):
			default:
				deferred[path] = err
				next = append(next, path)
			}
		}
		pending = next
		if m.afterAttempt != nil {
			m.afterAttempt(attempt, slices.Clone(pending))
		}
		if len(pending) == 0 || attempt == m.opts.MaxAttempts {
			break
		}
		logger.Debug("transient files still locked, retrying",
			logging.Int("attempt", attempt),
			logging.Int("remaining", len(pending)),
			logging.Duration("delay", m.opts.RetryDelay),
		)
		if !sleep(ctx, m.opts.RetryDelay) {
			break
		}
	}

	for _, path := range pending {
		report.Leftover = append(report.Leftover, FileError{Path: path, Error: deferred[path]})
		logging.WarnWithContext(logger, "transient file left behind", "cleanup_leftover",
			logging.String("path", path),
			logging.Error(deferred[path]),
			logging.Int("attempts", report.Attempts),
			logging.String(logging.FieldImpact, "remove the file manually"),
		)
	}
	return report
}

func (m *Manager) scan(workDir string, report *Report) []string {
	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range m.opts.Patterns {
		found, err := filepath.Glob(filepath.Join(workDir, pattern))
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: pattern, Error: err})
			continue
		}
		for _, path := range found {
			if _, dup := seen[path]; dup {
				continue
			}
			info, err := os.Lstat(path)
			if err != nil || info.IsDir() {
				continue
			}
			seen[path] = struct{}{}
			matches = append(matches, path)
		}
	}
	slices.Sort(matches)
	return matches
}

// removeUnlocked deletes path once a non-blocking lock shows no other process
// is using it.
func removeUnlocked(path string) error {
	probe := flock.New(path, flock.SetFlag(os.O_WRONLY|os.O_APPEND))
	locked, err := probe.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return ErrLocked
	}
	if err := probe.Unlock(); err != nil {
		return err
	}
	return os.Remove(path)
}

// sleep waits for d or until ctx is done. Cleanup usually runs on a detached
// context, so cancellation here only shortens the retry loop.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
