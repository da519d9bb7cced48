// Package store provides session existence persistence for lex-gateway.
//
// # Architecture
//
// [SessionStore] is implemented by three backends:
//
//   - SQLiteStore: modernc.org/sqlite, the default for single-host deployments
//   - DynamoStore: Amazon DynamoDB, for Lambda deployments (table "ris-sessions")
//   - MockStore: in-memory, with failure injection for tests
//
// A session is keyed by (conversation_id, participant_id). The conversation id
// is the front-end contact id and the participant id is the resolved sender
// (usually a phone number).
//
// # Setup
//
// Table creation is an explicit step. Callers invoke [SessionStore.Setup] once
// during startup (or via `lex-gateway setup`), never on the per-turn path.
//
// # Schema (SQLite)
//
//	CREATE TABLE sessions (
//	    conversation_id TEXT NOT NULL,
//	    participant_id  TEXT NOT NULL,
//	    created_at      TEXT NOT NULL,
//	    PRIMARY KEY (conversation_id, participant_id)
//	);
//
// # Schema (DynamoDB)
//
//	hash key:  session_id   (S)  conversation id
//	range key: phone_number (S)  participant id
//	attribute: created_at   (S)  RFC3339
//
// # Usage
//
//	s, err := store.NewSQLiteStore("/var/lib/lex-gateway/sessions.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Setup(ctx); err != nil {
//	    return err
//	}
//
//	_, err = s.GetSession(ctx, "contact-1", "+15551234567")
//	if errors.Is(err, store.ErrNotFound) {
//	    // first turn for this caller
//	}
package store
