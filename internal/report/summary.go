package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// RunSummary collects the outcome of one plan or commit run
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	Scanned    int
	Planned    int
	Unchanged  int
	Skipped    int
	Committed  int
	Moved      int
	Failed     int
	ChangesOut string // changes file written, if any
	EventLog   string
	Errors     map[string]int // error message -> count
}

// NewRunSummary starts a summary clocked from now
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartedAt: time.Now(),
		Errors:    make(map[string]int),
	}
}

// AddError counts an error by message
func (s *RunSummary) AddError(err error) {
	if err == nil {
		return
	}
	s.Errors[err.Error()]++
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// TopErrors returns up to limit errors, most frequent first
func (s *RunSummary) TopErrors(limit int) []ErrorSummary {
	errs := make([]ErrorSummary, 0, len(s.Errors))
	for msg, count := range s.Errors {
		errs = append(errs, ErrorSummary{Error: msg, Count: count})
	}
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		return errs[i].Error < errs[j].Error
	})
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

// Write prints a short human-readable summary
func (s *RunSummary) Write(w io.Writer) {
	elapsed := time.Since(s.StartedAt)

	fmt.Fprintf(w, "\nRun %s (started %s, took %s)\n",
		shortID(s.RunID), humanize.Time(s.StartedAt), elapsed.Round(time.Millisecond))

	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(int64(n)), label))
		}
	}
	add(s.Scanned, "scanned")
	add(s.Planned, "to change")
	add(s.Unchanged, "already clean")
	add(s.Skipped, "skipped")
	add(s.Committed, "committed")
	add(s.Moved, "moved")
	add(s.Failed, "failed")
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, ", "))

	if s.ChangesOut != "" {
		fmt.Fprintf(w, "  changes: %s\n", s.ChangesOut)
	}
	if s.EventLog != "" {
		fmt.Fprintf(w, "  events:  %s\n", s.EventLog)
	}

	for _, e := range s.TopErrors(5) {
		fmt.Fprintf(w, "  %s × %s\n", humanize.Comma(int64(e.Count)), truncate(e.Error, 100))
	}
}

// truncate shortens s to maxLen runes with a trailing ellipsis
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
