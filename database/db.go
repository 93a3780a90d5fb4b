// Package database persists board snapshots and the theme flag in a local
// SQLite file. The file is an offline cache, never the source of truth:
// it is read once at startup when the remote store is unreachable and
// rewritten on every board or theme change.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"sheetboard/board"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-row snapshot table: the full task list as one JSON blob.
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return db, nil
}

// SnapshotStore handles database operations for board snapshots.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveTasks upserts the serialized task list.
func (s *SnapshotStore) SaveTasks(tasks []board.Task) error {
	if tasks == nil {
		tasks = []board.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, data, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			data = ?,
			updated_at = CURRENT_TIMESTAMP
	`, string(data), string(data))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// LoadTasks returns the last saved task list, or an empty list when no
// snapshot has ever been written.
func (s *SnapshotStore) LoadTasks() ([]board.Task, error) {
	row := s.db.QueryRow("SELECT data FROM snapshots WHERE id = 1")

	var dataStr string
	err := row.Scan(&dataStr)
	if err == sql.ErrNoRows {
		return []board.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var tasks []board.Task
	if err := json.Unmarshal([]byte(dataStr), &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return tasks, nil
}

// SaveTheme stores the UI theme flag.
func (s *SnapshotStore) SaveTheme(theme string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES ('theme', ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = ?,
			updated_at = CURRENT_TIMESTAMP
	`, theme, theme)
	if err != nil {
		return fmt.Errorf("failed to upsert theme: %w", err)
	}
	return nil
}

// LoadTheme returns the stored theme flag, defaulting to "light".
func (s *SnapshotStore) LoadTheme() (string, error) {
	row := s.db.QueryRow("SELECT value FROM settings WHERE key = 'theme'")

	var theme string
	err := row.Scan(&theme)
	if err == sql.ErrNoRows {
		return "light", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query theme: %w", err)
	}
	return theme, nil
}
