package enforce

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/util"
)

type writeCall struct {
	path string
	tags map[string]string
}

type fakeWriter struct {
	calls []writeCall
	err   error
}

func (w *fakeWriter) write(path string, tags map[string]string) error {
	w.calls = append(w.calls, writeCall{path, tags})
	return w.err
}

type fakeRecorder struct {
	records map[string]string // key -> path
}

// recorderLookup lets a planner see what a committer recorded
type recorderLookup struct{ r *fakeRecorder }

func (l recorderLookup) Has(key string) (bool, error) {
	_, ok := l.r.records[key]
	return ok, nil
}

func (r *fakeRecorder) Record(key, path string, tags map[string]string, runID string) error {
	if r.records == nil {
		r.records = make(map[string]string)
	}
	r.records[key] = path
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCommitter_CommitAndMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "song.mp3")
	dest := filepath.Join(dir, "lib", "Artist", "Album", "Song.mp3")
	writeFile(t, src, "audio")

	cs := ChangeSet{}
	cs.Add("Artist", "Album", src, FileChange{
		"title": {Old: "song", Now: "Song"},
		PathKey: {Old: src, Now: dest},
	})

	w := &fakeWriter{}
	rec := &fakeRecorder{}
	c := NewCommitter(&CommitterConfig{Write: w.write, Changes: rec, RunID: "run"})

	result, err := c.Commit(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Committed)
	assert.Equal(t, 1, result.Moved)
	assert.Zero(t, result.Failed)

	require.Len(t, w.calls, 1)
	assert.Equal(t, src, w.calls[0].path)
	assert.Equal(t, map[string]string{"title": "Song"}, w.calls[0].tags)

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	assert.Equal(t, dest, rec.records[util.FileKey(dest)])
}

func TestCommitter_NoMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	writeFile(t, src, "audio")

	cs := ChangeSet{}
	cs.Add("A", "R", src, FileChange{
		"title": {Old: "song", Now: "Song"},
		PathKey: {Old: src, Now: filepath.Join(dir, "elsewhere.mp3")},
	})

	rec := &fakeRecorder{}
	c := NewCommitter(&CommitterConfig{Write: (&fakeWriter{}).write, Changes: rec, NoMove: true})

	result, err := c.Commit(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Committed)
	assert.Zero(t, result.Moved)
	assert.FileExists(t, src)
	assert.Equal(t, src, rec.records[util.FileKey(src)])
}

func TestCommitter_Conflict(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	dest := filepath.Join(dir, "taken.mp3")
	writeFile(t, src, "new")
	writeFile(t, dest, "old")

	cs := ChangeSet{}
	cs.Add("A", "R", src, FileChange{
		"title": {Old: "song", Now: "Song"},
		PathKey: {Old: src, Now: dest},
	})

	w := &fakeWriter{}
	rec := &fakeRecorder{}
	c := NewCommitter(&CommitterConfig{Write: w.write, Changes: rec})

	result, err := c.Commit(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], util.ErrConflict)

	data, _ := os.ReadFile(dest)
	assert.Equal(t, "old", string(data))
	assert.FileExists(t, src)
	assert.Empty(t, w.calls, "tags must not be written when the move cannot happen")
	assert.Empty(t, rec.records)
}

func TestCommitter_ConflictCanBeReplanned(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "song.mp3")
	taken := filepath.Join(dir, "lib", "Artist", "Album", "Song.mp3")
	writeFile(t, src, "new")
	writeFile(t, taken, "old")

	raw := meta.RawTags{meta.RawTitle: "Song", meta.RawArtist: "Artist", meta.RawAlbum: "Album"}
	read := fakeReader(map[string]meta.RawTags{src: raw})
	rec := &fakeRecorder{}

	plan := func(pathTemplate string) *PlanResult {
		p := NewPlanner(&PlannerConfig{
			Library:      meta.MustLibrary(meta.DefaultGroups()),
			Engine:       render.New(render.Options{Quiet: true}),
			Read:         read,
			Changes:      recorderLookup{rec},
			LibraryRoot:  filepath.Join(dir, "lib"),
			Templates:    testTemplates,
			TagMap:       testTagMap,
			PathTemplate: pathTemplate,
		})
		result, err := p.Plan(context.Background(), []string{src})
		require.NoError(t, err)
		return result
	}

	first := plan("${artist}/${releaseTitle}/${title}")
	require.Equal(t, 1, first.Planned)

	c := NewCommitter(&CommitterConfig{Write: (&fakeWriter{}).write, Changes: rec})
	result, err := c.Commit(context.Background(), first.Changes)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	second := plan("${artist}/${title}")
	assert.Equal(t, 1, second.Planned)
	assert.Zero(t, second.Skipped)

	result, err = c.Commit(context.Background(), second.Changes)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Moved)
	assert.FileExists(t, filepath.Join(dir, "lib", "Artist", "Song.mp3"))
}

func TestCommitter_MoveFailureAfterWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.mp3")
	// A regular file where the destination directory should be
	blocker := filepath.Join(dir, "lib")
	writeFile(t, src, "audio")
	writeFile(t, blocker, "not a directory")

	cs := ChangeSet{}
	cs.Add("A", "R", src, FileChange{
		"title": {Old: "song", Now: "Song"},
		PathKey: {Old: src, Now: filepath.Join(blocker, "Song.mp3")},
	})

	w := &fakeWriter{}
	rec := &fakeRecorder{}
	c := NewCommitter(&CommitterConfig{
		Write:       w.write,
		Changes:     rec,
		RetryConfig: &util.RetryConfig{MaxAttempts: 1},
	})

	result, err := c.Commit(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, w.calls, 1)
	assert.Empty(t, rec.records, "a file whose move failed must stay plannable")
	assert.FileExists(t, src)
}

func TestCommitter_WriteFailure(t *testing.T) {
	cs := ChangeSet{}
	cs.Add("A", "R", "/in/a.mp3", FileChange{"title": {Old: "a", Now: "A"}})
	cs.Add("A", "R", "/in/b.mp3", FileChange{"title": {Old: "b", Now: "B"}})

	rec := &fakeRecorder{}
	w := &fakeWriter{err: errors.New("read-only")}
	c := NewCommitter(&CommitterConfig{Write: w.write, Changes: rec})

	result, err := c.Commit(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, w.calls, 2)
	assert.Empty(t, rec.records)
}

func TestCommitter_CopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dest := filepath.Join(dir, "dest.mp3")
	writeFile(t, src, "some audio bytes")

	c := NewCommitter(&CommitterConfig{Write: (&fakeWriter{}).write})
	n, err := c.copyFile(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len("some audio bytes")), n)
	assert.NoFileExists(t, dest+".part")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "some audio bytes", string(data))
}
