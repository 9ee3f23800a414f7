package pkgcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

const (
	// DefaultLockTimeout bounds how long an install waits for another process
	// holding the same cache entry.
	DefaultLockTimeout = 60 * time.Second

	lockRetryDelay = 250 * time.Millisecond
)

// ErrLockTimeout is returned when a cache entry stays locked past the timeout.
var ErrLockTimeout = errors.New("timed out waiting for cache lock")

// LockPath is the lock file guarding a cache entry.
func LockPath(entry string) string {
	return entry + ".lock"
}

func withLock(ctx context.Context, logger *zerolog.Logger, entry string, timeout time.Duration, fn func() error) error {
	path := LockPath(entry)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fileLock := flock.New(path)
	logger.Debug().Msgf("Acquiring cache lock %s", path)
	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.Warn().Err(err).Msgf("Failed to release cache lock %s", path)
		}
	}()

	return fn()
}
