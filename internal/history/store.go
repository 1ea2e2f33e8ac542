// Package history persists per-workflow local state: the last request body
// used for a webhook invocation, and the favorites list.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store handles local state persistence.
type Store struct {
	db *sql.DB
}

// dbPathFunc resolves the database location (~/.n8nctl/n8nctl.db).
// Tests can override this to point at a temp directory.
var dbPathFunc = defaultDBPath

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".n8nctl", "n8nctl.db"), nil
}

// Open opens (creating if needed) the local state database.
func Open() (*Store, error) {
	path, err := dbPathFunc()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocation_history (
		workflow_id TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS favorites (
		workflow_id TEXT PRIMARY KEY,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LastBody returns the last request body saved for a workflow, or nil when
// none has been recorded.
func (s *Store) LastBody(workflowID string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRow(`SELECT body FROM invocation_history WHERE workflow_id = ?`, workflowID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		// A corrupt row behaves like no history.
		return nil, nil
	}
	return body, nil
}

// SaveBody records the request body for a workflow, overwriting any prior
// entry. One row per workflow id.
func (s *Store) SaveBody(workflowID string, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode invocation body: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO invocation_history (workflow_id, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(workflow_id) DO UPDATE SET
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, workflowID, string(data))
	return err
}

// ToggleFavorite flips a workflow's favorite status and reports the new one.
func (s *Store) ToggleFavorite(workflowID string) (bool, error) {
	fav, err := s.IsFavorite(workflowID)
	if err != nil {
		return false, err
	}

	if fav {
		_, err = s.db.Exec(`DELETE FROM favorites WHERE workflow_id = ?`, workflowID)
		return false, err
	}
	_, err = s.db.Exec(`INSERT INTO favorites (workflow_id) VALUES (?)`, workflowID)
	return true, err
}

// IsFavorite reports whether a workflow is in the favorites list.
func (s *Store) IsFavorite(workflowID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM favorites WHERE workflow_id = ?`, workflowID).Scan(&count)
	return count > 0, err
}

// Favorites returns all favorite workflow ids, oldest first.
func (s *Store) Favorites() ([]string, error) {
	rows, err := s.db.Query(`SELECT workflow_id FROM favorites ORDER BY added_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
