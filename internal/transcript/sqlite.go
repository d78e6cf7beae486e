// ABOUTME: SQLite implementation of the transcript Store using modernc.org/sqlite
// ABOUTME: Provides session/turn persistence with automatic schema creation

package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/grimoire/internal/ragapi"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "transcript")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("transcript store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			conversation_id TEXT PRIMARY KEY,
			first_prompt TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			status TEXT NOT NULL,
			content TEXT NOT NULL,
			response_json TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES sessions(conversation_id)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_conversation
			ON turns(conversation_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// SaveTurn persists a resolved turn, creating or touching its session row
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn *Turn) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (conversation_id, first_prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET updated_at = excluded.updated_at
	`, turn.ConversationID, turn.Prompt, now, now)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (id, conversation_id, prompt, status, content, response_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, turn.ID, turn.ConversationID, turn.Prompt, turn.Status, turn.Content, turn.ResponseJSON, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	return tx.Commit()
}

// GetSession returns session metadata for a conversation
func (s *SQLiteStore) GetSession(ctx context.Context, conversationID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT conversation_id, first_prompt, created_at, updated_at
		FROM sessions WHERE conversation_id = ?
	`, conversationID)

	var sess Session
	err := row.Scan(&sess.ConversationID, &sess.FirstPrompt, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

// ListSessions returns the most recently updated sessions, newest first
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, first_prompt, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ConversationID, &sess.FirstPrompt, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// ListTurns returns a conversation's turns in causal order, oldest first
func (s *SQLiteStore) ListTurns(ctx context.Context, conversationID string, limit int) ([]*Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, prompt, status, content, response_json, created_at
		FROM turns WHERE conversation_id = ?
		ORDER BY created_at ASC LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(&turn.ID, &turn.ConversationID, &turn.Prompt, &turn.Status,
			&turn.Content, &turn.ResponseJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, &turn)
	}
	return turns, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordTurn implements chat.Recorder. It saves with a separate timeout
// context so archival continues even if the request context is cancelled;
// recording failures are logged and never affect conversation state.
func (s *SQLiteStore) RecordTurn(_ context.Context, conversationID, prompt string, resp *ragapi.QueryResponse) {
	if conversationID == "" {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err, "conversation_id", conversationID)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	turn := &Turn{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Prompt:         prompt,
		Status:         string(resp.Status),
		Content:        resp.DisplayContent(),
		ResponseJSON:   string(payload),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.SaveTurn(saveCtx, turn); err != nil {
		s.logger.Error("failed to save turn",
			"error", err,
			"conversation_id", conversationID,
			"turn_id", turn.ID)
	} else {
		s.logger.Debug("turn archived",
			"conversation_id", conversationID,
			"turn_id", turn.ID,
			"status", turn.Status)
	}
}
