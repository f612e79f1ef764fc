package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/tag-enforcer/internal/util"
)

// DefaultExtensions are the file types the enforcer can tag
var DefaultExtensions = []string{".mp3"}

// Scanner discovers taggable files in a directory tree
type Scanner struct {
	extensions map[string]bool
	progress   bool
}

// Config holds scanner configuration
type Config struct {
	Extensions []string // defaults to DefaultExtensions
	Progress   bool     // show a spinner on a terminal
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[ext] = true
	}

	return &Scanner{extensions: extMap, progress: cfg.Progress}
}

// Scan returns the matching files under root in lexical order. root may also
// name a single file. Unreadable entries are logged and skipped. Hidden
// directories are not entered.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if !s.isTaggable(root) {
			return nil, fmt.Errorf("%w: %s is not one of %s", util.ErrUnsupported, root, strings.Join(s.Extensions(), ", "))
		}
		return []string{root}, nil
	}

	util.DebugLog("Scanning %s", root)

	var bar *progressbar.ProgressBar
	if s.progress && util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		// Indeterminate: the total is unknown until the walk ends
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isTaggable(path) {
			files = append(files, path)
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		return nil
	})

	if bar != nil {
		_ = bar.Finish()
	}

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("walk error: %w", walkErr)
	}

	sort.Strings(files)
	util.DebugLog("Scan complete: %d files under %s", len(files), root)
	return files, nil
}

// isTaggable checks if a file has a supported extension
func (s *Scanner) isTaggable(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "._") {
		return false // macOS resource forks
	}
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// Extensions returns the supported extensions, sorted
func (s *Scanner) Extensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
