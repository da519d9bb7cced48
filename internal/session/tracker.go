// ABOUTME: Session existence tracking with a fail-open policy over a SessionStore
// ABOUTME: Lookup failures count as "not found" and lead to a (re)created record

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/lex-gateway/internal/store"
)

// LookupStatus is the outcome of a session lookup
type LookupStatus int

const (
	LookupNotFound LookupStatus = iota
	LookupFound
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// LookupResult carries the lookup status and, for LookupFailed, the cause.
type LookupResult struct {
	Status LookupStatus
	Err    error
}

// Tracker ensures a session record exists for each (conversation, participant) pair.
type Tracker struct {
	store  store.SessionStore
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker creates a Tracker. cache may be nil to always consult the store.
func NewTracker(s store.SessionStore, cache *Cache, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  s,
		cache:  cache,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// Lookup queries the store and classifies the result. It never returns an error.
func (t *Tracker) Lookup(ctx context.Context, conversationID, participantID string) LookupResult {
	_, err := t.store.GetSession(ctx, conversationID, participantID)
	switch {
	case err == nil:
		return LookupResult{Status: LookupFound}
	case errors.Is(err, store.ErrNotFound):
		return LookupResult{Status: LookupNotFound}
	default:
		return LookupResult{Status: LookupFailed, Err: err}
	}
}

// EnsureSession reports whether the session is new, creating it when the
// lookup finds nothing or fails. A failed create is logged and swallowed;
// the session is still reported as new.
func (t *Tracker) EnsureSession(ctx context.Context, conversationID, participantID string) bool {
	key := cacheKey(conversationID, participantID)
	if t.cache != nil && t.cache.Contains(key) {
		return false
	}

	result := t.Lookup(ctx, conversationID, participantID)
	if result.Status == LookupFound {
		t.markKnown(key)
		return false
	}
	if result.Status == LookupFailed {
		t.logger.Warn("session lookup failed, treating as new",
			"conversation_id", conversationID,
			"participant_id", participantID,
			"error", result.Err,
		)
	}

	t.logger.Info("new session", "conversation_id", conversationID, "participant_id", participantID)
	err := t.store.CreateSession(ctx, &store.Session{
		ConversationID: conversationID,
		ParticipantID:  participantID,
		CreatedAt:      t.now().UTC(),
	})
	if err != nil {
		t.logger.Error("failed to save session",
			"conversation_id", conversationID,
			"participant_id", participantID,
			"error", err,
		)
		return true
	}

	t.markKnown(key)
	return true
}

func (t *Tracker) markKnown(key string) {
	if t.cache != nil {
		t.cache.Mark(key)
	}
}

func cacheKey(conversationID, participantID string) string {
	return conversationID + "\x00" + participantID
}
