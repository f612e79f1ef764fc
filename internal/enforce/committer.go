package enforce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/franz/tag-enforcer/internal/report"
	"github.com/franz/tag-enforcer/internal/util"
)

// TagWriter stores tags in a file
type TagWriter func(path string, tags map[string]string) error

// ChangeRecorder remembers files that were processed
type ChangeRecorder interface {
	Record(key, path string, tags map[string]string, runID string) error
}

// Committer applies a ChangeSet: writes tags, moves files and records them
// in the change cache
type Committer struct {
	write       TagWriter
	changes     ChangeRecorder
	noMove      bool
	retryConfig *util.RetryConfig
	logger      *report.EventLogger
	runID       string
}

// CommitterConfig holds committer configuration
type CommitterConfig struct {
	Write       TagWriter
	Changes     ChangeRecorder    // nil: nothing is recorded
	NoMove      bool              // write tags in place only
	RetryConfig *util.RetryConfig // nil: util.DefaultRetryConfig
	Logger      *report.EventLogger
	RunID       string
}

// NewCommitter creates a Committer
func NewCommitter(cfg *CommitterConfig) *Committer {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.DefaultRetryConfig()
	}

	return &Committer{
		write:       cfg.Write,
		changes:     cfg.Changes,
		noMove:      cfg.NoMove,
		retryConfig: cfg.RetryConfig,
		logger:      cfg.Logger,
		runID:       cfg.RunID,
	}
}

// CommitResult represents commit results
type CommitResult struct {
	Committed    int
	Moved        int
	Failed       int
	BytesWritten int64 // copied across filesystems
	Errors       []error
}

// Commit applies every file of cs in order. A failing file is reported and
// the rest still run.
func (c *Committer) Commit(ctx context.Context, cs ChangeSet) (*CommitResult, error) {
	result := &CommitResult{
		Errors: make([]error, 0),
	}

	for _, f := range cs.Files() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		moved, copied, err := c.commitFile(ctx, f)
		result.BytesWritten += copied
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", f.Path, err))
			util.ErrorLog("Failed to commit %s: %v", f.Path, err)
			c.logger.LogError(report.EventCommit, f.Path, err)
			continue
		}
		result.Committed++
		if moved {
			result.Moved++
		}
	}

	if result.BytesWritten > 0 {
		util.InfoLog("Copied %s across filesystems", humanize.Bytes(uint64(result.BytesWritten)))
	}
	return result, nil
}

func (c *Committer) commitFile(ctx context.Context, f PlannedFile) (moved bool, copied int64, err error) {
	start := time.Now()
	path := f.Path

	dest, move := f.Change.Move()
	move = move && !c.noMove
	// A taken destination fails the file before anything is written
	if move && util.FileExists(dest) {
		return false, 0, fmt.Errorf("move: %w: %s already exists", util.ErrConflict, dest)
	}

	tags := f.Change.Tags()
	if len(tags) > 0 {
		if err := c.write(path, tags); err != nil {
			return false, 0, fmt.Errorf("write tags: %w", err)
		}
	}

	if move {
		copied, err = c.moveFile(ctx, path, dest)
		if err != nil {
			// Left unrecorded so the next plan offers the move again
			return false, copied, fmt.Errorf("move: %w", err)
		}
		c.logger.LogMove(path, dest)
		path = dest
		moved = true
	}

	c.record(path, tags)
	c.logger.LogCommit(util.FileKey(path), path, tags, time.Since(start))
	util.DebugLog("Committed %s", path)
	return moved, copied, nil
}

func (c *Committer) record(path string, tags map[string]string) {
	if c.changes == nil {
		return
	}
	if err := c.changes.Record(util.FileKey(path), path, tags, c.runID); err != nil {
		util.WarnLog("Failed to record %s in change cache: %v", path, err)
	}
}

// moveFile renames src to dest, copying when they are on different
// filesystems. An existing dest is never overwritten. Returns the bytes
// copied (zero for a rename).
func (c *Committer) moveFile(ctx context.Context, src, dest string) (int64, error) {
	if util.FileExists(dest) {
		return 0, fmt.Errorf("%w: %s already exists", util.ErrConflict, dest)
	}

	if err := util.RetryableMkdirAll(ctx, filepath.Dir(dest), c.retryConfig); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	same, err := util.IsSameFilesystem(src, dest)
	if err != nil {
		util.DebugLog("Could not compare filesystems for %s: %v", dest, err)
		same = true
	}

	if same {
		err := util.RetryableRename(ctx, src, dest, c.retryConfig)
		if err == nil {
			util.DebugLog("Moved: %s -> %s", src, dest)
			return 0, nil
		}
		if !errors.Is(err, syscall.EXDEV) {
			return 0, err
		}
		util.DebugLog("Rename failed (%v), falling back to copy", err)
	}

	n, err := c.copyFile(ctx, src, dest)
	if err != nil {
		return 0, err
	}

	if err := util.RetryableRemove(ctx, src, c.retryConfig); err != nil {
		util.WarnLog("Failed to delete source file %s: %v", src, err)
	}

	util.DebugLog("Moved: %s -> %s (%s copied)", src, dest, humanize.Bytes(uint64(n)))
	return n, nil
}

// copyFile copies a file through a .part temporary file and verifies the size
func (c *Committer) copyFile(ctx context.Context, src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source: %w", err)
	}

	tempPath := dest + ".part"
	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, stat.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	n, err := copyWithContext(ctx, out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n != stat.Size() {
		err = fmt.Errorf("size mismatch: copied %d of %d bytes", n, stat.Size())
	}
	if err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to copy: %w", err)
	}

	if err := util.RetryableRename(ctx, tempPath, dest, c.retryConfig); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to rename: %w", err)
	}
	return n, nil
}

// copyWithContext copies data with context cancellation support
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 128*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er != io.EOF {
				return written, er
			}
			return written, nil
		}
	}
}
