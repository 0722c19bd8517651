package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/mediaurl"
	"lectern/internal/recording"
	"lectern/internal/server"
	"lectern/internal/session"
	"lectern/internal/store"
	"lectern/internal/testsupport"
	"lectern/internal/transcript"
)

type fakeBackend struct {
	jobs    []egress.EgressInfo
	started int
}

func (f *fakeBackend) StartJob(_ context.Context, req egress.StartJobRequest) (*egress.EgressInfo, error) {
	f.started++
	return &egress.EgressInfo{
		EgressID: "EG_http",
		RoomName: req.RoomName,
		Status:   egress.RawStatus{Symbol: "EGRESS_STARTING"},
	}, nil
}

func (f *fakeBackend) ListJobs(context.Context, string) ([]egress.EgressInfo, error) {
	return f.jobs, nil
}

func (f *fakeBackend) StopJob(_ context.Context, jobID string) (*egress.EgressInfo, error) {
	return &egress.EgressInfo{EgressID: jobID, Status: egress.RawStatus{Symbol: "EGRESS_ENDING"}}, nil
}

type fixture struct {
	handler http.Handler
	store   *store.Store
	backend *fakeBackend
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithStorage(config.Storage{
		Bucket:        "bucket",
		PublicBaseURL: "https://cdn.example",
	})}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	backend := &fakeBackend{}
	resolver := session.NewResolver(st, logger)
	router := egress.NewRouter(cfg, egress.WithClientFactory(func(config.EgressRoute) (egress.API, error) {
		return backend, nil
	}))
	manager := recording.NewManager(cfg, st, resolver, router, logger)
	reconciler := recording.NewReconciler(st, mediaurl.New(cfg.Storage, logger), logger)
	capture := transcript.NewCapture(st, logger)

	srv := server.New(cfg, resolver, manager, reconciler, capture, nil, logger)
	return &fixture{handler: srv.Handler(), store: st, backend: backend}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	return recorder
}

func TestSessionInitIsIdempotent(t *testing.T) {
	f := newFixture(t)

	body := api.SessionInitRequest{RoomInstanceID: "RM_abc", RoomDisplayName: "math-101"}
	first := f.do(t, http.MethodPost, "/api/sessions/init", body)
	if first.Code != http.StatusOK {
		t.Fatalf("first init status %d: %s", first.Code, first.Body.String())
	}
	second := f.do(t, http.MethodPost, "/api/sessions/init", body)
	if second.Code != http.StatusOK {
		t.Fatalf("second init status %d", second.Code)
	}

	var a, b api.Session
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if a.SessionKey != b.SessionKey || a.DisplayID != b.DisplayID {
		t.Fatalf("expected identical sessions, got %+v and %+v", a, b)
	}
}

func TestSessionInitValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/sessions/init", api.SessionInitRequest{RoomDisplayName: "math-101"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRecordingStartAndConflict(t *testing.T) {
	f := newFixture(t)

	body := api.RecordingStartRequest{RoomInstanceID: "RM_abc", RoomDisplayName: "math-101"}
	resp := f.do(t, http.MethodPost, "/api/recordings/start", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("start status %d: %s", resp.Code, resp.Body.String())
	}

	var rec api.Recording
	if err := json.Unmarshal(resp.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode recording: %v", err)
	}
	if rec.ExternalJobID != "EG_http" || rec.Status != "active" {
		t.Fatalf("unexpected recording: %+v", rec)
	}

	// Backend now reports the job live; a second start must conflict.
	f.backend.jobs = []egress.EgressInfo{{EgressID: "EG_http", Status: egress.RawStatus{Symbol: "EGRESS_ACTIVE"}}}
	resp = f.do(t, http.MethodPost, "/api/recordings/start", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var errBody map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] != "recording already in progress" {
		t.Fatalf("unexpected conflict message %q", errBody["error"])
	}
}

func TestRecordingStopNotFound(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/recordings/stop", api.RecordingStopRequest{RoomDisplayName: "math-101"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestTranscriptAppendAndList(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/sessions/init", api.SessionInitRequest{RoomInstanceID: "RM_abc", RoomDisplayName: "math-101"})

	appendBody := api.TranscriptAppendRequest{
		SessionKey: "RM_abc",
		Language:   "en",
		Text:       "hello",
		OffsetMS:   1200,
		SegmentKey: "seg-1",
	}
	resp := f.do(t, http.MethodPost, "/api/transcripts", appendBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("append status %d: %s", resp.Code, resp.Body.String())
	}
	var created api.TranscriptAppendResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode append response: %v", err)
	}
	if !created.Created {
		t.Fatal("expected created=true")
	}

	// Replay surfaces as ordinary success, not an error.
	resp = f.do(t, http.MethodPost, "/api/transcripts", appendBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("replay status %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode replay response: %v", err)
	}
	if created.Created {
		t.Fatal("expected created=false on replay")
	}

	resp = f.do(t, http.MethodGet, "/api/transcripts?sessionKey=RM_abc&language=en", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status %d", resp.Code)
	}
	var list api.TranscriptListResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Text != "hello" {
		t.Fatalf("unexpected fragments: %+v", list.Items)
	}
}

func TestTranscriptAppendUnknownSession(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/transcripts", api.TranscriptAppendRequest{
		SessionKey: "RM_missing",
		Language:   "en",
		Text:       "hello",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestWebhookCompletesRecording(t *testing.T) {
	f := newFixture(t)

	ctx := context.Background()
	testsupport.NewSession(t, f.store, "RM_abc", "math-101")
	testsupport.NewRecording(t, f.store, "EG_hook", "RM_abc", "math-101")

	event := egress.WebhookEvent{
		Event: "egress_ended",
		EgressInfo: &egress.EgressInfo{
			EgressID:       "EG_hook",
			Status:         egress.RawStatus{Symbol: "EGRESS_COMPLETE"},
			EndedAt:        time.Now().UTC().UnixMilli(),
			Duration:       (5 * time.Minute).Nanoseconds(),
			SegmentResults: []egress.SegmentResult{{PlaylistLocation: "math/session.m3u8", Size: 10}},
			FileResults:    []egress.FileResult{{Filename: "math/session.mp4", Size: 90}},
		},
	}
	resp := f.do(t, http.MethodPost, "/webhooks/egress", event)
	if resp.Code != http.StatusOK {
		t.Fatalf("webhook status %d: %s", resp.Code, resp.Body.String())
	}

	rec, err := f.store.RecordingByJobID(ctx, "EG_hook")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.PlaylistURL != "https://cdn.example/math/session.m3u8" {
		t.Fatalf("unexpected playlist url %q", rec.PlaylistURL)
	}
}

func TestWebhookUnknownJobStillAcknowledged(t *testing.T) {
	f := newFixture(t)

	event := egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_unknown",
			Status:   egress.RawStatus{Symbol: "EGRESS_COMPLETE"},
		},
	}
	resp := f.do(t, http.MethodPost, "/webhooks/egress", event)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown job, got %d", resp.Code)
	}
}

func TestWebhookMalformedBodyAcknowledged(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/egress", bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for malformed body, got %d", recorder.Code)
	}
}

func TestBearerAuthGuardsAPIButNotWebhook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret-token"
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	backend := &fakeBackend{}
	resolver := session.NewResolver(st, logger)
	router := egress.NewRouter(cfg, egress.WithClientFactory(func(config.EgressRoute) (egress.API, error) {
		return backend, nil
	}))
	manager := recording.NewManager(cfg, st, resolver, router, logger)
	reconciler := recording.NewReconciler(st, mediaurl.New(cfg.Storage, logger), logger)
	capture := transcript.NewCapture(st, logger)
	srv := server.New(cfg, resolver, manager, reconciler, capture, nil, logger)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", recorder.Code)
	}

	payload, _ := json.Marshal(egress.WebhookEvent{})
	req = httptest.NewRequest(http.MethodPost, "/webhooks/egress", bytes.NewReader(payload))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected webhook to bypass auth, got %d", recorder.Code)
	}
}

func TestMethodGuards(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions/init"},
		{http.MethodGet, "/api/recordings/start"},
		{http.MethodPost, "/api/sessions"},
		{http.MethodGet, "/webhooks/egress"},
	}
	for _, tc := range cases {
		resp := f.do(t, tc.method, tc.path, nil)
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, resp.Code)
		}
	}
}
