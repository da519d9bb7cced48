// ABOUTME: SessionStore interface and data types for lex-gateway persistence
// ABOUTME: Tracks (conversation, participant) session existence across turns

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested session does not exist
var ErrNotFound = errors.New("not found")

// Session records that a participant has been seen in a conversation.
// Existence is the only fact tracked; records are never mutated.
type Session struct {
	ConversationID string
	ParticipantID  string
	CreatedAt      time.Time
}

// SessionStore defines the interface for session existence persistence
type SessionStore interface {
	// GetSession returns ErrNotFound when no record exists for the key.
	GetSession(ctx context.Context, conversationID, participantID string) (*Session, error)

	// CreateSession writes the record. Writing an existing key overwrites it
	// (last write wins); there is no uniqueness enforcement beyond the key.
	CreateSession(ctx context.Context, session *Session) error

	// Setup creates the backing table if needed. Idempotent; called once at startup.
	Setup(ctx context.Context) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
