package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"o3enc/internal/logging"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunRemovesTempDirAndPassLogs(t *testing.T) {
	base := t.TempDir()
	tempDir := filepath.Join(base, "o3enc_run")
	if err := os.MkdirAll(filepath.Join(tempDir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	touch(t, filepath.Join(tempDir, "nested"), "loudnorm_measure.log")

	workDir := filepath.Join(base, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"ffmpeg2pass-0.log", "ffmpeg2pass-0.log.mbtree", "x264.temp", "pass.stats"} {
		touch(t, workDir, name)
	}
	keep := touch(t, workDir, "movie.mkv")

	report := New(Options{TempDir: tempDir, WorkDir: workDir, RetryDelay: time.Millisecond, Logger: logging.NewNop()}).Run(context.Background())

	if !report.Clean() {
		t.Fatalf("expected clean report, got %+v", report)
	}
	if !report.TempDirRemoved {
		t.Fatal("expected temp dir removed")
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Fatalf("temp dir still present: %v", err)
	}
	if len(report.Removed) != 4 {
		t.Fatalf("expected 4 removed files, got %v", report.Removed)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("unrelated file should survive: %v", err)
	}
	if report.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", report.Attempts)
	}
}

func TestRunNothingToDo(t *testing.T) {
	report := New(Options{WorkDir: t.TempDir()}).Run(context.Background())
	if !report.Clean() || report.Attempts != 0 || len(report.Removed) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunReportsLockedFileAfterMaxAttempts(t *testing.T) {
	workDir := t.TempDir()
	locked := touch(t, workDir, "ffmpeg2pass-0.log")
	free := touch(t, workDir, "ffmpeg2pass-0.log.mbtree")

	holder := flock.New(locked)
	if err := holder.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer holder.Unlock()

	var attempts []int
	mgr := New(Options{WorkDir: workDir, MaxAttempts: 3, RetryDelay: time.Millisecond})
	mgr.afterAttempt = func(attempt int, _ []string) { attempts = append(attempts, attempt) }
	report := mgr.Run(context.Background())

	if !slices.Equal(attempts, []int{1, 2, 3}) {
		t.Fatalf("attempts = %v", attempts)
	}
	if len(report.Leftover) != 1 || report.Leftover[0].Path != locked {
		t.Fatalf("leftover = %+v", report.Leftover)
	}
	if report.Leftover[0].Error != ErrLocked {
		t.Fatalf("leftover error = %v", report.Leftover[0].Error)
	}
	if _, err := os.Stat(locked); err != nil {
		t.Fatalf("locked file should remain: %v", err)
	}
	if _, err := os.Stat(free); !os.IsNotExist(err) {
		t.Fatalf("unlocked file should be removed: %v", err)
	}
	warnings := report.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "after 3 attempts") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestRunRetriesUntilLockReleased(t *testing.T) {
	workDir := t.TempDir()
	locked := touch(t, workDir, "ffmpeg2pass-0.log")

	holder := flock.New(locked)
	if err := holder.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}

	mgr := New(Options{WorkDir: workDir, MaxAttempts: 3, RetryDelay: time.Millisecond})
	mgr.afterAttempt = func(attempt int, pending []string) {
		if attempt == 1 && len(pending) == 1 {
			_ = holder.Unlock()
		}
	}
	report := mgr.Run(context.Background())

	if !report.Clean() {
		t.Fatalf("expected clean report, got %+v", report)
	}
	if report.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", report.Attempts)
	}
	if _, err := os.Stat(locked); !os.IsNotExist(err) {
		t.Fatalf("file should be removed once unlocked: %v", err)
	}
}

func TestRunStopsRetryingWhenCanceled(t *testing.T) {
	workDir := t.TempDir()
	locked := touch(t, workDir, "x265.stats")
	holder := flock.New(locked)
	if err := holder.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := New(Options{WorkDir: workDir, MaxAttempts: 5, RetryDelay: time.Hour}).Run(ctx)
	if report.Attempts != 1 {
		t.Fatalf("expected retries to stop after cancellation, got %d attempts", report.Attempts)
	}
	if len(report.Leftover) != 1 {
		t.Fatalf("expected leftover, got %+v", report)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	mgr := New(Options{RetryDelay: -1})
	if mgr.opts.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("max attempts = %d", mgr.opts.MaxAttempts)
	}
	if mgr.opts.RetryDelay != DefaultRetryDelay {
		t.Fatalf("retry delay = %v", mgr.opts.RetryDelay)
	}
	if !slices.Equal(mgr.opts.Patterns, DefaultPatterns) {
		t.Fatalf("patterns = %v", mgr.opts.Patterns)
	}
}
