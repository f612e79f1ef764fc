package store

// Schema v1 - choice and change caches
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Answers to interactive template directives, keyed by content hash
CREATE TABLE IF NOT EXISTS choices (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tags written to a file, keyed by hash of the file's new path
CREATE TABLE IF NOT EXISTS changes (
  key TEXT PRIMARY KEY,
  path TEXT NOT NULL,
  tags_json TEXT NOT NULL,
  run_id TEXT,
  committed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Schema v2
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_changes_path ON changes(path);
CREATE INDEX IF NOT EXISTS idx_changes_run_id ON changes(run_id);
`
