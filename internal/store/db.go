package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-energy-dashboard/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath keeps the catalog in memory for the life of the process
const MemoryPath = ":memory:"

// DB is the session catalog
type DB struct {
	db *sql.DB
}

// Open connects to the catalog at dbPath and creates its tables
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	sessionTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		status TEXT,
		row_count INTEGER,
		columns TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	fileTable := `
	CREATE TABLE IF NOT EXISTS session_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		name TEXT,
		size INTEGER,
		format TEXT
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS session_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{sessionTable, fileTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create catalog tables: %w", err)
		}
	}

	return &DB{db: db}, nil
}

// Close releases the connection
func (s *DB) Close() error {
	return s.db.Close()
}

// SaveSession stores a new session with its files
func (s *DB) SaveSession(rec model.SessionRecord) error {
	columnsJSON, err := json.Marshal(rec.Columns)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sessions (id, status, row_count, columns, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Status, rec.RowCount, string(columnsJSON), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return err
	}
	for _, f := range rec.Files {
		_, err = tx.Exec(`INSERT INTO session_files (session_id, name, size, format) VALUES (?, ?, ?, ?)`,
			rec.ID, f.Name, f.Size, f.Format)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveSessionError records an error for a session
func (s *DB) SaveSessionError(sessionID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO session_errors (session_id, error_message, created_at) VALUES (?, ?, ?)`,
		sessionID, err.Error(), now)
	return e
}

// UpdateSessionStatus updates session status
func (s *DB) UpdateSessionStatus(sessionID string, status string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, status, now, sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", model.ErrSessionNotFound, sessionID)
	}
	return nil
}

// MarkSessionDeleted flags a session as dropped by its owner
func (s *DB) MarkSessionDeleted(sessionID string) error {
	return s.UpdateSessionStatus(sessionID, model.SessionDeleted)
}

// ListSessions returns all sessions with basic info, newest first
func (s *DB) ListSessions() ([]model.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, status, row_count, columns, created_at, updated_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// GetSession fetches a session with its files
func (s *DB) GetSession(sessionID string) (*model.SessionRecord, error) {
	row := s.db.QueryRow(`SELECT id, status, row_count, columns, created_at, updated_at FROM sessions WHERE id = ?`, sessionID)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT name, size, format FROM session_files WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var f model.FileInfo
		if err := rows.Scan(&f.Name, &f.Size, &f.Format); err != nil {
			return nil, err
		}
		rec.Files = append(rec.Files, f)
	}
	return &rec, rows.Err()
}

// GetSessionErrors returns the errors recorded for a session, oldest first
func (s *DB) GetSessionErrors(sessionID string) ([]model.SessionError, error) {
	rows, err := s.db.Query(`SELECT error_message, created_at FROM session_errors WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SessionError
	for rows.Next() {
		var e model.SessionError
		if err := rows.Scan(&e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (model.SessionRecord, error) {
	var rec model.SessionRecord
	var columnsJSON string
	if err := row.Scan(&rec.ID, &rec.Status, &rec.RowCount, &columnsJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(columnsJSON), &rec.Columns); err != nil {
		return rec, fmt.Errorf("failed to decode columns of %s: %w", rec.ID, err)
	}
	return rec, nil
}
