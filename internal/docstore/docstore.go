// Package docstore keeps a local mirror of per-user profile documents in
// sqlite. The mirror is a denormalized JSON snapshot (settings plus last known
// delivery progress) that UI handlers can read without touching Postgres or
// Redis. It is refreshed after dispatches and settings changes and may lag the
// primary stores; nothing treats it as authoritative.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/PobedazaNami/sprache-motivator-sub000/pkg/models"
)

// ProfileDocument is the mirrored snapshot for one user.
type ProfileDocument struct {
	UserID         int64                     `json:"user_id"`
	Config         models.UserScheduleConfig `json:"config"`
	TasksSentToday int                       `json:"tasks_sent_today"`
	LastTaskTime   time.Time                 `json:"last_task_time"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Mirror is the sqlite-backed document store.
type Mirror struct {
	db *sqlx.DB
}

// Open creates the mirror database file (and its directory) if needed.
func Open(path string) (*Mirror, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create mirror directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS profile_documents (
			user_id INTEGER PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mirror schema: %w", err)
	}

	return &Mirror{db: db}, nil
}

// Close closes the mirror database.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// Put replaces the stored document for the user.
func (m *Mirror) Put(ctx context.Context, doc *ProfileDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal profile document: %w", err)
	}

	query := `
		INSERT INTO profile_documents (user_id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`
	if _, err := m.db.ExecContext(ctx, query, doc.UserID, string(data), doc.UpdatedAt); err != nil {
		return fmt.Errorf("failed to store profile document: %w", err)
	}
	return nil
}

// Get returns the mirrored document for a user, nil when never mirrored.
func (m *Mirror) Get(ctx context.Context, userID int64) (*ProfileDocument, error) {
	var raw string
	err := m.db.GetContext(ctx, &raw, `SELECT doc FROM profile_documents WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile document: %w", err)
	}

	var doc ProfileDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile document: %w", err)
	}
	return &doc, nil
}
