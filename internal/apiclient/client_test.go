package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lectern/internal/api"
	"lectern/internal/apiclient"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, PID: 42})
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL, "secret-token")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestClientDecodesDaemonError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "recording already in progress"})
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = client.StartRecording(context.Background(), api.RecordingStartRequest{
		RoomInstanceID:  "RM_abc",
		RoomDisplayName: "math-101",
	})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "recording already in progress" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClientQueryParameters(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		_ = json.NewEncoder(w).Encode(api.RecordingListResponse{})
	}))
	defer server.Close()

	client, err := apiclient.New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Recordings(context.Background(), "RM_abc", 5); err != nil {
		t.Fatalf("Recordings failed: %v", err)
	}
	if gotPath != "/api/recordings?limit=5&sessionKey=RM_abc" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
}

func TestForBindRejectsEmptyAddress(t *testing.T) {
	if _, err := apiclient.ForBind("   ", ""); err == nil {
		t.Fatal("expected error for empty bind address")
	}
}
