// Package session tracks conversation session existence for lex-gateway.
//
// # Policy
//
// [Tracker.EnsureSession] is fail-open. A lookup produces an explicit
// [LookupResult]:
//
//   - LookupFound: the session exists, EnsureSession returns false
//   - LookupNotFound: the record is created, EnsureSession returns true
//   - LookupFailed: logged, then handled exactly like LookupNotFound
//
// No store error ever reaches the caller. Concurrent calls for the same key
// may both create the record; the store overwrites (last write wins).
//
// # Cache
//
// Sessions are never deleted by the gateway, so a key once confirmed stays
// valid. [Cache] remembers confirmed keys (bounded by TTL and size) so repeat
// turns in the same call skip the store round trip.
package session
