package testsupport

import (
	"context"
	"testing"
	"time"

	"lectern/internal/config"
	"lectern/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewSession inserts a session row for tests using the provided store.
func NewSession(t testing.TB, st *store.Store, sessionKey, roomName string) *store.Session {
	t.Helper()

	session, err := st.InsertSession(context.Background(), &store.Session{
		SessionKey: sessionKey,
		DisplayID:  roomName + "_2024-01-15_10-30",
		RoomName:   roomName,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("store.InsertSession: %v", err)
	}
	return session
}

// NewRecording inserts an active recording for tests using the provided store.
func NewRecording(t testing.TB, st *store.Store, jobID, sessionKey, roomName string) *store.Recording {
	t.Helper()

	recording, err := st.InsertRecording(context.Background(), &store.Recording{
		ExternalJobID:    jobID,
		SessionKey:       sessionKey,
		RoomName:         roomName,
		DisplaySessionID: roomName + "_2024-01-15_10-30",
		Status:           store.StatusActive,
		StartedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("store.InsertRecording: %v", err)
	}
	return recording
}
