package report

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ChangeRow is one tag change of one file
type ChangeRow struct {
	File string
	Tag  string
	Old  string
	New  string
}

// RenderChangeTable lays out changes grouped by file. Consecutive rows of
// the same file show the file name once.
func RenderChangeTable(rows []ChangeRow, maxWidth int) string {
	if len(rows) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Tag", "Old", "New"})

	last := ""
	for _, r := range rows {
		file := r.File
		if file == last {
			file = ""
		} else if last != "" {
			tw.AppendSeparator()
		}
		last = r.File
		tw.AppendRow(table.Row{file, r.Tag, r.Old, r.New})
	}

	if maxWidth > 0 {
		// Leave the tag column alone; split the rest
		col := maxWidth / 4
		if col < 12 {
			col = 12
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: col, WidthMaxEnforcer: text.WrapSoft},
			{Number: 3, WidthMax: col, WidthMaxEnforcer: text.WrapSoft},
			{Number: 4, WidthMax: col, WidthMaxEnforcer: text.WrapSoft},
		})
	}

	return tw.Render()
}
