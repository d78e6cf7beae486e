// ABOUTME: Store interface and data types for the local conversation archive
// ABOUTME: Defines Session, Turn structs and the Store interface for persistence

package transcript

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Session represents one archived conversation with the backend
type Session struct {
	ConversationID string
	FirstPrompt    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Turn represents a single resolved query or clarification turn
type Turn struct {
	ID             string
	ConversationID string
	Prompt         string
	Status         string // top-level response status
	Content        string // displayed answer text
	ResponseJSON   string // full QueryResponse as JSON, for replay/export
	CreatedAt      time.Time
}

// Store defines the interface for transcript persistence
type Store interface {
	SaveTurn(ctx context.Context, turn *Turn) error
	GetSession(ctx context.Context, conversationID string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]*Session, error)
	ListTurns(ctx context.Context, conversationID string, limit int) ([]*Turn, error)

	// Close releases any resources held by the store
	Close() error
}
