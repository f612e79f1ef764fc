package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/franz/tag-enforcer/internal/util"
)

// ChoiceCache persists answers to interactive directives.
// It satisfies render.ChoiceCache.
type ChoiceCache struct {
	s *Store
}

// Choices returns the choice cache backed by s
func (s *Store) Choices() *ChoiceCache {
	return &ChoiceCache{s: s}
}

// Get returns a remembered choice. Read failures are logged and reported as
// a miss so a render can fall back to prompting.
func (c *ChoiceCache) Get(key string) (string, bool) {
	var value string
	err := c.s.db.QueryRow("SELECT value FROM choices WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		util.WarnLog("Failed to read choice %s: %v", key, err)
		return "", false
	}
	return value, true
}

// Set stores or replaces a choice
func (c *ChoiceCache) Set(key, value string) error {
	_, err := c.s.db.Exec(`
		INSERT INTO choices (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store choice: %w", err)
	}
	return nil
}

// Clear forgets every choice and returns how many were removed
func (c *ChoiceCache) Clear() (int64, error) {
	result, err := c.s.db.Exec("DELETE FROM choices")
	if err != nil {
		return 0, fmt.Errorf("failed to clear choices: %w", err)
	}
	return result.RowsAffected()
}
