package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	InitialWait time.Duration // Wait before the second attempt, doubled afterwards
	MaxWait     time.Duration // Upper bound for a single wait
}

// DefaultRetryConfig returns the retry configuration used for file moves
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// IsRetryableError reports whether err looks transient (busy device, flaky
// network mount) rather than a permanent failure
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EBUSY, syscall.ETIMEDOUT, syscall.EIO,
			syscall.ECONNRESET, syscall.EHOSTDOWN, syscall.ENETDOWN:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "timed out", "temporarily unavailable", "i/o error"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Retry runs op until it succeeds, fails with a non-retryable error, the
// attempts are exhausted or ctx is cancelled
func Retry(ctx context.Context, cfg *RetryConfig, name string, op func() error) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	wait := cfg.InitialWait
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v",
			name, attempt, cfg.MaxAttempts, wait, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait *= 2
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	WarnLog("Retry: %s failed after %d attempts: %v", name, cfg.MaxAttempts, err)
	return fmt.Errorf("max retries exceeded (%d attempts): %w", cfg.MaxAttempts, err)
}

// RetryableRename renames a file with retry logic
func RetryableRename(ctx context.Context, oldpath, newpath string, cfg *RetryConfig) error {
	return Retry(ctx, cfg, fmt.Sprintf("rename(%s -> %s)", oldpath, newpath), func() error {
		return os.Rename(oldpath, newpath)
	})
}

// RetryableMkdirAll creates a directory with retry logic
func RetryableMkdirAll(ctx context.Context, path string, cfg *RetryConfig) error {
	return Retry(ctx, cfg, fmt.Sprintf("mkdir(%s)", path), func() error {
		return os.MkdirAll(path, 0755)
	})
}

// RetryableRemove removes a file with retry logic
func RetryableRemove(ctx context.Context, path string, cfg *RetryConfig) error {
	return Retry(ctx, cfg, fmt.Sprintf("remove(%s)", path), func() error {
		return os.Remove(path)
	})
}
