// Package enforce plans and applies tag and path changes to a music library
package enforce

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/tag-enforcer/internal/report"
)

// PathKey is the pseudo tag under which a file move is recorded
const PathKey = "path"

// TagChange is the old and new value of one tag
type TagChange struct {
	Old string `json:"old"`
	Now string `json:"now"`
}

// FileChange maps tag keys (and PathKey) to their change
type FileChange map[string]TagChange

// Tags returns the new tag values, without the path
func (fc FileChange) Tags() map[string]string {
	tags := make(map[string]string, len(fc))
	for k, c := range fc {
		if k != PathKey {
			tags[k] = c.Now
		}
	}
	return tags
}

// Move returns the destination when the file should be moved
func (fc FileChange) Move() (string, bool) {
	c, ok := fc[PathKey]
	if !ok || c.Now == "" || c.Now == c.Old {
		return "", false
	}
	return c.Now, true
}

// Keys returns the changed keys with PathKey last
func (fc FileChange) Keys() []string {
	keys := make([]string, 0, len(fc))
	for k := range fc {
		if k != PathKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := fc[PathKey]; ok {
		keys = append(keys, PathKey)
	}
	return keys
}

// ChangeSet groups file changes by artist, then release, then file path.
// Its JSON form is the changes file written by `plan --out` and read by
// `commit`.
type ChangeSet map[string]map[string]map[string]FileChange

// Add records the change of one file
func (cs ChangeSet) Add(artist, release, file string, fc FileChange) {
	releases, ok := cs[artist]
	if !ok {
		releases = make(map[string]map[string]FileChange)
		cs[artist] = releases
	}
	files, ok := releases[release]
	if !ok {
		files = make(map[string]FileChange)
		releases[release] = files
	}
	files[file] = fc
}

// PlannedFile is one entry of a ChangeSet
type PlannedFile struct {
	Artist  string
	Release string
	Path    string
	Change  FileChange
}

// Files returns every entry ordered by artist, release and path
func (cs ChangeSet) Files() []PlannedFile {
	var files []PlannedFile
	for artist, releases := range cs {
		for release, byPath := range releases {
			for path, fc := range byPath {
				files = append(files, PlannedFile{Artist: artist, Release: release, Path: path, Change: fc})
			}
		}
	}
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Release != b.Release {
			return a.Release < b.Release
		}
		return a.Path < b.Path
	})
	return files
}

// Len returns the number of files in the set
func (cs ChangeSet) Len() int {
	n := 0
	for _, releases := range cs {
		for _, files := range releases {
			n += len(files)
		}
	}
	return n
}

// Rows flattens the set for report.RenderChangeTable
func (cs ChangeSet) Rows() []report.ChangeRow {
	var rows []report.ChangeRow
	for _, f := range cs.Files() {
		for _, k := range f.Change.Keys() {
			c := f.Change[k]
			rows = append(rows, report.ChangeRow{File: f.Path, Tag: k, Old: c.Old, New: c.Now})
		}
	}
	return rows
}

// Format lists every change as "key: old -> now" under its file
func (cs ChangeSet) Format() string {
	var b strings.Builder
	for _, f := range cs.Files() {
		fmt.Fprintf(&b, "%s\n", f.Path)
		for _, k := range f.Change.Keys() {
			c := f.Change[k]
			fmt.Fprintf(&b, "  %s: %s -> %s\n", k, c.Old, c.Now)
		}
	}
	return b.String()
}

// Save writes the set to dir as changes-<unix time>.json and returns the path
func (cs ChangeSet) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode changes: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("changes-%d.json", time.Now().Unix()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write changes file: %w", err)
	}
	return path, nil
}

// LoadChangeSet reads a changes file
func LoadChangeSet(path string) (ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changes file: %w", err)
	}

	cs := ChangeSet{}
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("failed to parse changes file %s: %w", path, err)
	}
	return cs, nil
}

// CommittedName returns the name a changes file is renamed to once applied
func CommittedName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-COMMITTED" + ext
}

// MarkCommitted renames an applied changes file and returns the new path
func MarkCommitted(path string) (string, error) {
	dest := CommittedName(path)
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to mark %s committed: %w", path, err)
	}
	return dest, nil
}
