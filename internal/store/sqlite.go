// ABOUTME: SQLite implementation of the SessionStore interface using modernc.org/sqlite
// ABOUTME: Provides session existence persistence with explicit schema setup

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the SessionStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens a SQLite store at the given path.
// Parent directories are created if needed. The schema is not created here;
// call Setup once during startup.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each :memory: connection is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	logger.Info("SQLite store opened", "path", path)
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Setup creates the sessions table if it doesn't exist
func (s *SQLiteStore) Setup(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			conversation_id TEXT NOT NULL,
			participant_id  TEXT NOT NULL,
			created_at      TEXT NOT NULL,

			PRIMARY KEY (conversation_id, participant_id)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_participant ON sessions(participant_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	s.logger.Debug("sessions schema ready")
	return nil
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// GetSession retrieves a session by its composite key.
// Returns ErrNotFound if the session doesn't exist.
func (s *SQLiteStore) GetSession(ctx context.Context, conversationID, participantID string) (*Session, error) {
	query := `
		SELECT conversation_id, participant_id, created_at
		FROM sessions
		WHERE conversation_id = ? AND participant_id = ?
	`

	var session Session
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, conversationID, participantID).Scan(
		&session.ConversationID,
		&session.ParticipantID,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &session, nil
}

// CreateSession writes a session record, replacing any existing record with
// the same key.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (conversation_id, participant_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id, participant_id) DO UPDATE SET created_at = excluded.created_at
	`

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		session.ConversationID,
		session.ParticipantID,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "conversation_id", session.ConversationID, "participant_id", session.ParticipantID)
	return nil
}

// CountSessions returns the number of stored sessions
func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
