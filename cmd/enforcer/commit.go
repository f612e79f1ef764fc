package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/franz/tag-enforcer/internal/enforce"
	"github.com/franz/tag-enforcer/internal/report"
	"github.com/franz/tag-enforcer/internal/util"
)

var commitCmd = &cobra.Command{
	Use:   "commit <changes.json>",
	Short: "Apply a changes file written by plan --out",
	Long: `Write the tags and perform the moves recorded in a changes file.

Committed files are remembered so later plans skip them. On success the
changes file is renamed to <name>-COMMITTED.json.`,
	Args: cobra.ExactArgs(1),
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)

	commitCmd.Flags().Bool("no-move", false, "Only change tags, never move files")
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	noMove, _ := cmd.Flags().GetBool("no-move")

	cs, err := enforce.LoadChangeSet(args[0])
	if err != nil {
		return err
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	summary := report.NewRunSummary(s.runID)
	summary.EventLog = s.logger.Path()

	util.InfoLog("Committing %d files from %s", cs.Len(), args[0])
	if err := commitChanges(ctx, s, cs, noMove, summary); err != nil {
		return err
	}

	if summary.Failed == 0 {
		renamed, err := enforce.MarkCommitted(args[0])
		if err != nil {
			util.WarnLog("%v", err)
		} else {
			summary.ChangesOut = renamed
		}
	} else {
		util.WarnLog("Some files failed; %s left in place for another attempt", args[0])
	}

	summary.Write(os.Stderr)
	return nil
}
