package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/tag-enforcer/internal/enforce"
	"github.com/franz/tag-enforcer/internal/report"
	"github.com/franz/tag-enforcer/internal/scan"
	"github.com/franz/tag-enforcer/internal/util"
)

var planCmd = &cobra.Command{
	Use:   "plan [dir|file]",
	Short: "Work out tag and path changes for a directory or file",
	Long: `Scan a directory (or a single file) for MP3s and work out how each one
should be tagged and where it belongs under the library root.

Files already processed by an earlier commit are skipped. Planning stops
once --limit files need changes. Nothing is written unless --force is given;
use --out to save the changes for a later "enforcer commit".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("out", "", "Directory to write the changes file to")
	planCmd.Flags().Bool("force", false, "Commit the planned changes immediately")
	planCmd.Flags().Bool("no-move", false, "Only change tags, never move files")
	planCmd.Flags().Int("limit", 0, "Maximum number of files to change (default from config, <=0 unlimited)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	root := s.cfg.LibraryRoot
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("nothing to plan: pass a directory or set library_root in config")
	}
	// Processed files are remembered by absolute path
	if root, err = filepath.Abs(root); err != nil {
		return err
	}

	limit := s.cfg.Limit
	if cmd.Flags().Changed("limit") {
		limit, _ = cmd.Flags().GetInt("limit")
	}
	noMove, _ := cmd.Flags().GetBool("no-move")
	force, _ := cmd.Flags().GetBool("force")
	outDir, _ := cmd.Flags().GetString("out")

	summary := report.NewRunSummary(s.runID)
	summary.EventLog = s.logger.Path()

	scanner := scan.New(&scan.Config{
		Extensions: []string{s.cfg.Extension},
		Progress:   !viper.GetBool("quiet"),
	})
	files, err := scanner.Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	planner, err := s.planner(noMove, limit)
	if err != nil {
		return err
	}

	result, err := planner.Plan(ctx, files)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	summary.Scanned = result.Scanned
	summary.Planned = result.Planned
	summary.Unchanged = result.Unchanged
	summary.Skipped = result.Skipped
	summary.Failed = result.Failed
	for _, e := range result.Errors {
		summary.AddError(e)
	}
	if result.Limited {
		util.InfoLog("Stopped at the limit of %d files", limit)
	}

	printChanges(result.Changes)

	if outDir != "" && result.Changes.Len() > 0 {
		path, err := result.Changes.Save(outDir)
		if err != nil {
			return err
		}
		summary.ChangesOut = path
	}

	if force && result.Changes.Len() > 0 {
		if err := commitChanges(ctx, s, result.Changes, noMove, summary); err != nil {
			return err
		}
		if summary.ChangesOut != "" {
			if _, err := enforce.MarkCommitted(summary.ChangesOut); err != nil {
				util.WarnLog("%v", err)
			}
		}
	}

	summary.Write(os.Stderr)
	return nil
}

// printChanges shows a table on a terminal and plain lines otherwise
func printChanges(cs enforce.ChangeSet) {
	if cs.Len() == 0 {
		return
	}
	if util.StdoutIsTerminal() {
		fmt.Println(report.RenderChangeTable(cs.Rows(), util.TerminalWidth()))
		return
	}
	fmt.Print(cs.Format())
}

func commitChanges(ctx context.Context, s *session, cs enforce.ChangeSet, noMove bool, summary *report.RunSummary) error {
	result, err := s.committer(noMove).Commit(ctx, cs)
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	summary.Committed = result.Committed
	summary.Moved = result.Moved
	summary.Failed += result.Failed
	for _, e := range result.Errors {
		summary.AddError(e)
	}
	return nil
}
