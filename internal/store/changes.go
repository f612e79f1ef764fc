package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Change is the record of tags written to one file
type Change struct {
	Key         string
	Path        string
	Tags        map[string]string
	RunID       string
	CommittedAt time.Time
}

// ChangeCache remembers which files have already been enforced so later runs
// skip them. Keys are util.FileKey of the file's path after the move.
type ChangeCache struct {
	s *Store
}

// Changes returns the change cache backed by s
func (s *Store) Changes() *ChangeCache {
	return &ChangeCache{s: s}
}

// Has reports whether key was recorded
func (c *ChangeCache) Has(key string) (bool, error) {
	var n int
	err := c.s.db.QueryRow("SELECT COUNT(*) FROM changes WHERE key = ?", key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up change: %w", err)
	}
	return n > 0, nil
}

// Get returns the recorded change, or nil when there is none
func (c *ChangeCache) Get(key string) (*Change, error) {
	ch := &Change{Key: key}
	var tagsJSON string
	var runID sql.NullString
	err := c.s.db.QueryRow(`
		SELECT path, tags_json, run_id, committed_at FROM changes WHERE key = ?
	`, key).Scan(&ch.Path, &tagsJSON, &runID, &ch.CommittedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get change: %w", err)
	}

	ch.RunID = runID.String
	if err := json.Unmarshal([]byte(tagsJSON), &ch.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", ch.Path, err)
	}
	return ch, nil
}

// Record stores the tags written to path under key
func (c *ChangeCache) Record(key, path string, tags map[string]string, runID string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = c.s.db.Exec(`
		INSERT INTO changes (key, path, tags_json, run_id, committed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			path = excluded.path,
			tags_json = excluded.tags_json,
			run_id = excluded.run_id,
			committed_at = excluded.committed_at
	`, key, path, string(tagsJSON), runID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	return nil
}

// Clear forgets every recorded change and returns how many were removed
func (c *ChangeCache) Clear() (int64, error) {
	result, err := c.s.db.Exec("DELETE FROM changes")
	if err != nil {
		return 0, fmt.Errorf("failed to clear changes: %w", err)
	}
	return result.RowsAffected()
}
