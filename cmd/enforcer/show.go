package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/franz/tag-enforcer/internal/enforce"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/store"
	"github.com/franz/tag-enforcer/internal/tags"
	"github.com/franz/tag-enforcer/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show raw tags, the extracted song info and the rendered result for one file",
	Long: `Debug how a single file is interpreted.

Prints the raw tags as read, the song info built from them (including the
remixers, qualifiers and other lists pulled out of the text) and the tags
and path the templates render. Rendering never prompts: remembered choices
are used, and anything still needing input is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, paths, err := loadConfig()
	if err != nil {
		return err
	}
	lib, err := cfg.Library()
	if err != nil {
		return err
	}

	// Read-only: show must work while a plan holds the writer lock
	var cache render.ChoiceCache = render.NewMemoryCache()
	var db *store.Store
	if util.FileExists(paths.DB) {
		db, err = store.OpenWithOptions(paths.DB, &store.OpenOptions{ReadOnly: true})
		if err != nil {
			util.WarnLog("Cache unavailable: %v", err)
		} else {
			defer db.Close()
			cache = db.Choices()
		}
	}

	planner := enforce.NewPlanner(&enforce.PlannerConfig{
		Library:      lib,
		Engine:       render.New(render.Options{Cache: cache, Quiet: true}),
		Read:         tags.Read,
		LibraryRoot:  cfg.LibraryRoot,
		Templates:    cfg.Templates,
		TagMap:       cfg.TagMap,
		PathTemplate: cfg.FilePath,
		Extension:    cfg.Extension,
		NoMove:       cfg.LibraryRoot == "",
	})

	ev, err := planner.Evaluate(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("File: %s\n\n", path)

	fmt.Println("Raw tags:")
	fmt.Println(keyValueTable(ev.Raw))

	info, err := json.MarshalIndent(ev.Info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\nSong info:\n%s\n", info)

	fmt.Println("\nRendered tags:")
	fmt.Println(keyValueTable(ev.Tags))
	if ev.IdealPath != "" {
		fmt.Printf("\nPath: %s\n", ev.IdealPath)
	}

	if len(ev.Change) == 0 {
		fmt.Println("\nAlready clean.")
	} else {
		fmt.Println("\nChanges:")
		for _, k := range ev.Change.Keys() {
			c := ev.Change[k]
			fmt.Printf("  %s: %s -> %s\n", k, c.Old, c.Now)
		}
	}

	if db != nil {
		if ch, err := db.Changes().Get(util.FileKey(path)); err != nil {
			util.WarnLog("%v", err)
		} else if ch != nil {
			fmt.Printf("\nCommitted %s (run %s)\n", ch.CommittedAt.Format("2006-01-02 15:04"), ch.RunID)
		}
	}

	return nil
}

func keyValueTable(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	for _, k := range keys {
		t.AppendRow(table.Row{k, m[k]})
	}
	if len(keys) == 0 {
		t.AppendRow(table.Row{"(none)", ""})
	}
	return t.Render()
}

