package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/tag-enforcer/internal/prompt"
	"github.com/franz/tag-enforcer/internal/util"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent caches",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget remembered choices and processed files",
	Long: `Clear the caches. Each one is confirmed separately:

  choices  answers given to interactive questions
  changes  files already processed, which later plans skip`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(paths, cfg.NetworkOptimized)
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := db.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("choices: %s\n", humanize.Comma(int64(st.Choices)))
		fmt.Printf("changes: %s\n", humanize.Comma(int64(st.Changes)))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)

	cacheClearCmd.Flags().BoolP("yes", "y", false, "Clear without asking")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(paths, cfg.NetworkOptimized)
	if err != nil {
		return err
	}
	defer db.Close()

	term, interactive := prompt.Stdio()
	if !yes && !interactive {
		return fmt.Errorf("%w: pass --yes to clear caches without a terminal", util.ErrInputRequired)
	}

	caches := []struct {
		name  string
		clear func() (int64, error)
	}{
		{"remembered choices", db.Choices().Clear},
		{"processed files", db.Changes().Clear},
	}

	for _, c := range caches {
		if !yes {
			ok, err := term.Confirm(fmt.Sprintf("Clear %s?", c.name))
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		n, err := c.clear()
		if err != nil {
			return err
		}
		util.SuccessLog("Cleared %s %s", humanize.Comma(n), c.name)
	}
	return nil
}
