// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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

	"github.com/jeranaias/workbench-tui/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL,
	mode         TEXT NOT NULL,
	archived_at  TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT NOT NULL,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	sources         TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (conversation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_content ON messages(conversation_id, role);
`

// ErrNotFound is returned when a conversation is not in the archive.
var ErrNotFound = errors.New("conversation not found in archive")

// =============================================================================
// ARCHIVE
// =============================================================================

// Meta is the listing row for an archived conversation.
type Meta struct {
	ID           string
	WorkspaceID  string
	Title        string
	Mode         model.Mode
	ArchivedAt   time.Time
	MessageCount int
	Preview      string
}

// Archive is a local SQLite snapshot store for conversations.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if necessary) the archive database at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save snapshots a conversation and its full message history, replacing
// any previous snapshot of the same conversation in one transaction.
func (a *Archive) Save(conv model.Conversation, msgs []model.Message) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
		INSERT INTO conversations (id, workspace_id, title, mode, archived_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			title        = excluded.title,
			mode         = excluded.mode,
			updated_at   = excluded.updated_at`,
		conv.ID, conv.WorkspaceID, conv.Title, string(conv.Mode), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("failed to clear old snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, conversation_id, position, role, content, sources)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		sources, err := json.Marshal(m.Sources)
		if err != nil {
			return fmt.Errorf("failed to encode sources: %w", err)
		}
		if _, err := stmt.Exec(m.ID, conv.ID, i, string(m.Role), m.Content, string(sources)); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// List returns archived conversations newest-first, capped at limit
// (0 = no cap). The preview is the first user message.
func (a *Archive) List(limit int) ([]Meta, error) {
	query := `
		SELECT c.id, c.workspace_id, c.title, c.mode, c.archived_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			COALESCE((SELECT m.content FROM messages m
				WHERE m.conversation_id = c.id AND m.role = 'user'
				ORDER BY m.position LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var mode, archivedAt string
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Title, &mode, &archivedAt, &m.MessageCount, &m.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		m.Mode = model.Mode(mode)
		m.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Search returns conversations whose title or any message content
// contains the query, newest-first.
func (a *Archive) Search(query string) ([]Meta, error) {
	like := "%" + query + "%"
	rows, err := a.db.Query(`
		SELECT DISTINCT c.id, c.workspace_id, c.title, c.mode, c.archived_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			COALESCE((SELECT m.content FROM messages m
				WHERE m.conversation_id = c.id AND m.role = 'user'
				ORDER BY m.position LIMIT 1), '')
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.title LIKE ? OR m.content LIKE ?
		ORDER BY c.updated_at DESC`, like, like)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var mode, archivedAt string
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Title, &mode, &archivedAt, &m.MessageCount, &m.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		m.Mode = model.Mode(mode)
		m.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Load returns a snapshot by conversation ID.
func (a *Archive) Load(id string) (model.Conversation, []model.Message, error) {
	var conv model.Conversation
	var mode string
	err := a.db.QueryRow(`
		SELECT id, workspace_id, title, mode FROM conversations WHERE id = ?`, id).
		Scan(&conv.ID, &conv.WorkspaceID, &conv.Title, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return conv, nil, ErrNotFound
	}
	if err != nil {
		return conv, nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	conv.Mode = model.Mode(mode)

	rows, err := a.db.Query(`
		SELECT id, role, content, sources FROM messages
		WHERE conversation_id = ? ORDER BY position`, id)
	if err != nil {
		return conv, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var role, sources string
		if err := rows.Scan(&m.ID, &role, &m.Content, &sources); err != nil {
			return conv, nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ConversationID = id
		m.Role = model.Role(role)
		if err := json.Unmarshal([]byte(sources), &m.Sources); err != nil {
			m.Sources = nil
		}
		msgs = append(msgs, m)
	}
	return conv, msgs, rows.Err()
}

// Delete removes a snapshot. Deleting an absent ID is not an error.
func (a *Archive) Delete(id string) error {
	_, err := a.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from archive: %w", err)
	}
	return nil
}

// Prune removes snapshots last updated more than retentionDays ago and
// returns how many were removed. retentionDays <= 0 is a no-op.
func (a *Archive) Prune(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	res, err := a.db.Exec(`DELETE FROM conversations WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
