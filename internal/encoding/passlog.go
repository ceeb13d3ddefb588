package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"o3enc/internal/logging"
)

// PassLogFile is the first-stream statistics file ffmpeg writes in its cwd.
const PassLogFile = "ffmpeg2pass-0.log"

const passLogRetry = 500 * time.Millisecond

// lockPassLog takes an exclusive advisory lock on the work dir's pass log so a
// concurrent run neither encodes over it nor cleans it up. It waits while
// another run holds the lock.
func lockPassLog(ctx context.Context, workDir string, logger *slog.Logger) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(workDir, PassLogFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock pass log: %w", err)
	}
	if locked {
		return lock, nil
	}
	logger.Info("waiting for another encode using the work directory",
		logging.String("pass_log", lock.Path()))
	locked, err = lock.TryLockContext(ctx, passLogRetry)
	if err != nil {
		return nil, fmt.Errorf("lock pass log: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock pass log: %s is held by another process", lock.Path())
	}
	return lock, nil
}
