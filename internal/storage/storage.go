// Package storage persists project records in a local sqlite database.
// Records are stored as serialized JSON keyed by project id; a row that
// no longer parses is dropped rather than failing the whole load.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/project"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const activeProjectKey = "active_project_id"

// ErrNotFound reports a missing project record.
var ErrNotFound = errors.New("project not found")

// Store wraps the sqlite database under the daemon data directory.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// ProjectInfo is the listing shape: everything but the tree itself.
type ProjectInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Open opens or creates the store at {dataDir}/studio.db.
func Open(dataDir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "studio.db"))
	if err != nil {
		return nil, fmt.Errorf("open studio.db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveProject upserts a project record.
func (s *Store) SaveProject(p *project.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO projects (id, data, updated_at) VALUES (?, ?, ?)`,
		p.ID, string(data), p.LastModified.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// LoadProject reads one project record. A corrupted record is deleted
// and reported as not found, so a bad row never wedges the session.
func (s *Store) LoadProject(id string) (*project.Project, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM projects WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", id, err)
	}
	var p project.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		s.logger.Warn("dropping corrupted project record",
			logging.String("id", id),
			logging.Error(err),
		)
		_, _ = s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListProjects returns info for every readable record, newest first.
// Corrupted rows are dropped and skipped.
func (s *Store) ListProjects() ([]ProjectInfo, error) {
	rows, err := s.db.Query(`SELECT id, data FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectInfo
	var corrupt []string
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		var p project.Project
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			s.logger.Warn("dropping corrupted project record",
				logging.String("id", id),
				logging.Error(err),
			)
			corrupt = append(corrupt, id)
			continue
		}
		out = append(out, ProjectInfo{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			LastModified: p.LastModified,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, id := range corrupt {
		_, _ = s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	}
	return out, nil
}

// DeleteProject removes a record. Deleting the active project clears the
// active pointer too.
func (s *Store) DeleteProject(id string) error {
	if _, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if active, _ := s.ActiveProjectID(); active == id {
		_, _ = s.db.Exec(`DELETE FROM settings WHERE key = ?`, activeProjectKey)
	}
	return nil
}

// SetActiveProjectID persists which project the session has open.
func (s *Store) SetActiveProjectID(id string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		activeProjectKey, id,
	)
	if err != nil {
		return fmt.Errorf("save active project id: %w", err)
	}
	return nil
}

// ActiveProjectID returns the persisted active project id, empty if none.
func (s *Store) ActiveProjectID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, activeProjectKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active project id: %w", err)
	}
	return id, nil
}
