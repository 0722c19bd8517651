package recording_test

import (
	"context"
	"errors"
	"testing"

	"lectern/internal/config"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/recording"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/store"
	"lectern/internal/testsupport"
)

type fakeBackend struct {
	jobs      []egress.EgressInfo
	listErr   error
	startErr  error
	stopErr   error
	started   []egress.StartJobRequest
	stopped   []string
	nextJobID string
}

func (f *fakeBackend) StartJob(_ context.Context, req egress.StartJobRequest) (*egress.EgressInfo, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, req)
	id := f.nextJobID
	if id == "" {
		id = "EG_fake"
	}
	return &egress.EgressInfo{
		EgressID: id,
		RoomName: req.RoomName,
		Status:   egress.RawStatus{Symbol: "EGRESS_STARTING"},
	}, nil
}

func (f *fakeBackend) ListJobs(context.Context, string) ([]egress.EgressInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.jobs, nil
}

func (f *fakeBackend) StopJob(_ context.Context, jobID string) (*egress.EgressInfo, error) {
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	f.stopped = append(f.stopped, jobID)
	return &egress.EgressInfo{EgressID: jobID, Status: egress.RawStatus{Symbol: "EGRESS_ENDING"}}, nil
}

func newManager(t *testing.T, backend *fakeBackend) (*recording.Manager, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())
	router := egress.NewRouter(cfg, egress.WithClientFactory(func(config.EgressRoute) (egress.API, error) {
		return backend, nil
	}))
	return recording.NewManager(cfg, st, resolver, router, logging.NewNop()), st
}

func TestStartCreatesSessionAndRecording(t *testing.T) {
	backend := &fakeBackend{nextJobID: "EG_1"}
	manager, st := newManager(t, backend)

	ctx := context.Background()
	rec, err := manager.Start(ctx, recording.StartRequest{
		RoomInstanceID: "RM_abc",
		RoomName:       "math-101",
		RequestedBy:    "teacher@example.com",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if rec.ExternalJobID != "EG_1" || rec.Status != store.StatusActive {
		t.Fatalf("unexpected recording: %#v", rec)
	}

	sess, err := st.SessionByKey(ctx, "RM_abc")
	if err != nil {
		t.Fatalf("SessionByKey failed: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session to be created")
	}
	if rec.DisplaySessionID != sess.DisplayID {
		t.Fatalf("display id mismatch: %q vs %q", rec.DisplaySessionID, sess.DisplayID)
	}

	if len(backend.started) != 1 {
		t.Fatalf("expected one start call, got %d", len(backend.started))
	}
	req := backend.started[0]
	if req.Segments == nil || req.File == nil {
		t.Fatalf("expected both output specs, got %+v", req)
	}
	if req.Segments.SegmentDuration != 6 {
		t.Fatalf("unexpected segment duration: %d", req.Segments.SegmentDuration)
	}
}

func TestStartRejectsLiveJobConflict(t *testing.T) {
	backend := &fakeBackend{jobs: []egress.EgressInfo{
		{EgressID: "EG_live", Status: egress.RawStatus{Symbol: "EGRESS_ACTIVE"}},
	}}
	manager, _ := newManager(t, backend)

	_, err := manager.Start(context.Background(), recording.StartRequest{
		RoomInstanceID: "RM_abc",
		RoomName:       "math-101",
	})
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(backend.started) != 0 {
		t.Fatal("expected no start call after conflict")
	}
}

func TestStartAllowsNewJobAfterTerminal(t *testing.T) {
	backend := &fakeBackend{
		jobs: []egress.EgressInfo{
			{EgressID: "EG_old", Status: egress.RawStatus{Code: 3, IsCode: true}},
			{EgressID: "EG_older", Status: egress.RawStatus{Symbol: "EGRESS_FAILED"}},
		},
		nextJobID: "EG_new",
	}
	manager, _ := newManager(t, backend)

	rec, err := manager.Start(context.Background(), recording.StartRequest{
		RoomInstanceID: "RM_abc",
		RoomName:       "math-101",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if rec.ExternalJobID != "EG_new" {
		t.Fatalf("unexpected job id %q", rec.ExternalJobID)
	}
}

func TestStartPropagatesUpstreamFailure(t *testing.T) {
	backend := &fakeBackend{
		listErr: services.Wrap(services.ErrUpstream, "egress", "list jobs", "connection refused", nil),
	}
	manager, _ := newManager(t, backend)

	_, err := manager.Start(context.Background(), recording.StartRequest{
		RoomInstanceID: "RM_abc",
		RoomName:       "math-101",
	})
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestStopTerminatesActiveJobs(t *testing.T) {
	backend := &fakeBackend{jobs: []egress.EgressInfo{
		{EgressID: "EG_live", Status: egress.RawStatus{Symbol: "EGRESS_ACTIVE"}},
		{EgressID: "EG_done", Status: egress.RawStatus{Symbol: "EGRESS_COMPLETE"}},
	}}
	manager, _ := newManager(t, backend)

	if err := manager.Stop(context.Background(), "math-101", ""); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(backend.stopped) != 1 || backend.stopped[0] != "EG_live" {
		t.Fatalf("expected only the live job stopped, got %v", backend.stopped)
	}
}

func TestStopWithoutActiveJobIsNotFound(t *testing.T) {
	backend := &fakeBackend{jobs: []egress.EgressInfo{
		{EgressID: "EG_done", Status: egress.RawStatus{Symbol: "EGRESS_COMPLETE"}},
	}}
	manager, _ := newManager(t, backend)

	err := manager.Stop(context.Background(), "math-101", "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStopLeavesRowActiveWhenBackendUnreachable(t *testing.T) {
	backend := &fakeBackend{nextJobID: "EG_1"}
	manager, st := newManager(t, backend)

	ctx := context.Background()
	if _, err := manager.Start(ctx, recording.StartRequest{
		RoomInstanceID: "RM_abc",
		RoomName:       "math-101",
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	backend.jobs = []egress.EgressInfo{{EgressID: "EG_1", Status: egress.RawStatus{Symbol: "EGRESS_ACTIVE"}}}
	backend.stopErr = services.Wrap(services.ErrUpstream, "egress", "post /egress/stop", "connection refused", nil)

	err := manager.Stop(ctx, "math-101", "")
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_1")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusActive {
		t.Fatalf("expected row to stay active for later reconciliation, got %s", rec.Status)
	}
}
