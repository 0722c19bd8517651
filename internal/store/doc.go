// Package store persists sessions, recordings, and transcript fragments in
// SQLite.
//
// All invariants the service relies on are enforced here by the schema:
// uniqueness of session keys and external job ids, first-writer-wins dedup of
// keyed transcript fragments, and the absorbing terminal states of recordings
// via status-conditional updates. Callers never mutate these rows through ad
// hoc queries.
package store
