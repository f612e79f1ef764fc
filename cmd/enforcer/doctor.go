package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/tag-enforcer/internal/config"
	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/store"
	"github.com/franz/tag-enforcer/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure enforcer can operate correctly.

This command checks:
- Configuration (patterns compile, templates render)
- SQLite version
- Cache database accessibility and integrity
- Library root permissions and disk space
- Editor availability for "config edit"

Use this command to troubleshoot issues before planning.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Enforcer Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	cfg, paths, err := loadConfig()
	if err != nil {
		results = append(results, checkResult{name: "Configuration", error: true, message: err.Error()})
	} else {
		results = append(results, checkConfig(cfg))
	}

	results = append(results, checkSQLite())
	results = append(results, checkDatabase(paths.DB))

	if cfg != nil && cfg.LibraryRoot != "" {
		results = append(results, checkLibraryRoot(cfg.LibraryRoot))
		results = append(results, checkDiskSpace(cfg.LibraryRoot, "library"))
	} else {
		results = append(results, checkResult{
			name:    "Library root",
			warning: true,
			message: "library_root not set (files will not be moved)",
		})
	}

	results = append(results, checkEditor(editor()))

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running enforcer.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! Ready to plan.")
	}

	return nil
}

// sampleRaw is a file with something for every default pattern group
var sampleRaw = meta.RawTags{
	meta.RawTitle:       "Song (DJ X Remix) [Live at Home]",
	meta.RawArtist:      "Main feat. Guest",
	meta.RawAlbum:       "Album EP",
	meta.RawGenre:       "House",
	meta.RawTrack:       "1/10",
	meta.RawDisc:        "1/1",
	meta.RawReleaseTime: "2020-05-01",
}

// checkConfig renders every template against a sample file without
// prompting. Input directives needing an answer are fine.
func checkConfig(cfg *config.Config) checkResult {
	lib, err := cfg.Library()
	if err != nil {
		return checkResult{name: "Configuration", error: true, message: err.Error()}
	}

	info := meta.NewBuilder(lib).Build(sampleRaw)
	engine := render.New(render.Options{Quiet: true})

	var problems []string
	for _, name := range render.TemplateOrder(cfg.Templates) {
		if _, err := engine.Render(cfg.Templates[name], info); err != nil && !errors.Is(err, util.ErrInputRequired) {
			problems = append(problems, fmt.Sprintf("template %s: %v", name, err))
		}
		if _, ok := cfg.TagMap[name]; !ok {
			problems = append(problems, fmt.Sprintf("template %s has no tag_map entry", name))
		}
	}
	if cfg.FilePath != "" {
		if _, err := engine.RenderPath(cfg.FilePath, info); err != nil && !errors.Is(err, util.ErrInputRequired) {
			problems = append(problems, fmt.Sprintf("file_path: %v", err))
		}
	}

	if len(problems) > 0 {
		return checkResult{name: "Configuration", error: true, message: strings.Join(problems, "; ")}
	}
	return checkResult{
		name:    "Configuration",
		message: fmt.Sprintf("%d pattern groups, %d templates", len(lib.Groups()), len(cfg.Templates)),
	}
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	// modernc.org/sqlite is pure Go, nothing to install
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	// Check if database exists
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	// Check if it's a regular file
	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	// Read-only so a running plan does not make doctor fail
	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{ReadOnly: true})
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	// Check integrity
	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	st, _ := db.Stats()
	size := humanize.Bytes(uint64(info.Size()))

	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %d choices, %d processed files)", dbPath, size, st.Choices, st.Changes),
	}
}

// checkLibraryRoot verifies the library root is a writable directory
func checkLibraryRoot(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Library root",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Library root",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check write permission by creating a temp file
	testFile := filepath.Join(path, ".enforcer_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Library root",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Library root",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	usedPercent := 0.0
	if totalBytes > 0 {
		usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	}

	// Moves across filesystems copy first; warn when that might not fit
	warning := false
	warningMsg := ""
	if availBytes < 1<<30 {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 95 {
		warning = true
		warningMsg = " (>95% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", humanize.Bytes(availBytes), warningMsg),
	}
}

// checkEditor looks up the editor "config edit" will run
func checkEditor(name string) checkResult {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return checkResult{name: "Editor", warning: true, message: "no editor configured"}
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return checkResult{
			name:    "Editor",
			warning: true,
			message: fmt.Sprintf("%s not found (set $EDITOR for config edit)", fields[0]),
		}
	}
	return checkResult{name: "Editor", message: path}
}
