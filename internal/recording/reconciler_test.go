package recording_test

import (
	"context"
	"testing"
	"time"

	"lectern/internal/config"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/mediaurl"
	"lectern/internal/recording"
	"lectern/internal/store"
	"lectern/internal/testsupport"
)

func newReconciler(t *testing.T) (*recording.Reconciler, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStorage(config.Storage{
		Bucket:        "bucket",
		PublicBaseURL: "https://cdn.example",
	}))
	st := testsupport.MustOpenStore(t, cfg)
	normalizer := mediaurl.New(cfg.Storage, logging.NewNop())
	return recording.NewReconciler(st, normalizer, logging.NewNop()), st
}

func completionEvent(jobID string) *egress.WebhookEvent {
	return &egress.WebhookEvent{
		Event: "egress_ended",
		EgressInfo: &egress.EgressInfo{
			EgressID: jobID,
			Status:   egress.RawStatus{Symbol: "EGRESS_COMPLETE"},
			RoomName: "math-101",
			EndedAt:  time.Now().UTC().UnixMilli(),
			Duration: (30 * time.Minute).Nanoseconds(),
			FileResults: []egress.FileResult{
				{Filename: "https://host/bucket/math/session.mp4", Size: 1000},
			},
			SegmentResults: []egress.SegmentResult{
				{PlaylistLocation: "math/session.m3u8", Size: 200},
			},
		},
	}
}

func TestHandleEventCompletesRecording(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	testsupport.NewRecording(t, st, "EG_1", "RM_abc", "math-101")

	if err := reconciler.HandleEvent(ctx, completionEvent("EG_1")); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_1")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusCompleted {
		t.Fatalf("unexpected status: %s", rec.Status)
	}
	if rec.PlaylistURL != "https://cdn.example/math/session.m3u8" {
		t.Fatalf("unexpected playlist url: %q", rec.PlaylistURL)
	}
	if rec.DownloadURL != "https://cdn.example/math/session.mp4" {
		t.Fatalf("unexpected download url: %q", rec.DownloadURL)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 1800 {
		t.Fatalf("unexpected duration: %v", rec.DurationSeconds)
	}
	if rec.SizeBytes == nil || *rec.SizeBytes != 1200 {
		t.Fatalf("expected summed size 1200, got %v", rec.SizeBytes)
	}
	if rec.EndedAt == nil {
		t.Fatal("expected ended_at")
	}
}

func TestHandleEventDurationFallback(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	created := testsupport.NewRecording(t, st, "EG_fb", "RM_abc", "math-101")

	endedAt := created.StartedAt.Add(95 * time.Second)
	event := &egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_fb",
			Status:   egress.RawStatus{Code: 3, IsCode: true},
			EndedAt:  endedAt.UnixMilli(),
		},
	}
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_fb")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 95 {
		t.Fatalf("expected fallback duration 95, got %v", rec.DurationSeconds)
	}
}

func TestHandleEventPrimaryDurationNotOverridden(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	created := testsupport.NewRecording(t, st, "EG_pd", "RM_abc", "math-101")

	// Reported duration disagrees with end minus start; the reported value wins.
	event := &egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_pd",
			Status:   egress.RawStatus{Symbol: "EGRESS_COMPLETE"},
			EndedAt:  created.StartedAt.Add(10 * time.Minute).UnixMilli(),
			Duration: (2 * time.Minute).Nanoseconds(),
		},
	}
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_pd")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 120 {
		t.Fatalf("expected reported duration 120, got %v", rec.DurationSeconds)
	}
}

func TestHandleEventFailure(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	testsupport.NewRecording(t, st, "EG_fail", "RM_abc", "math-101")

	event := &egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_fail",
			Status:   egress.RawStatus{Symbol: "EGRESS_FAILED"},
		},
	}
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_fail")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusFailed {
		t.Fatalf("unexpected status: %s", rec.Status)
	}
	if rec.EndedAt == nil {
		t.Fatal("expected ended_at on failure")
	}
}

func TestHandleEventMonotonicTerminalState(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	testsupport.NewRecording(t, st, "EG_mono", "RM_abc", "math-101")

	if err := reconciler.HandleEvent(ctx, completionEvent("EG_mono")); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	late := &egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_mono",
			Status:   egress.RawStatus{Symbol: "EGRESS_FAILED"},
		},
	}
	if err := reconciler.HandleEvent(ctx, late); err != nil {
		t.Fatalf("late callback errored: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_mono")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusCompleted {
		t.Fatalf("expected completed to be absorbing, got %s", rec.Status)
	}
}

func TestHandleEventUnknownJobIsNoop(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	if err := reconciler.HandleEvent(ctx, completionEvent("EG_unknown")); err != nil {
		t.Fatalf("expected success for unknown job, got %v", err)
	}

	recordings, err := st.ListRecordings(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecordings failed: %v", err)
	}
	if len(recordings) != 0 {
		t.Fatalf("expected datastore unchanged, got %d rows", len(recordings))
	}
}

func TestHandleEventDuplicateCompletion(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	testsupport.NewRecording(t, st, "EG_dup", "RM_abc", "math-101")

	event := completionEvent("EG_dup")
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	first, err := st.RecordingByJobID(ctx, "EG_dup")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}

	// Redelivered with different artifact data; the stored row must not change.
	event.EgressInfo.FileResults = []egress.FileResult{{Filename: "other/file.mp4", Size: 99}}
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}

	second, err := st.RecordingByJobID(ctx, "EG_dup")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if second.DownloadURL != first.DownloadURL || second.UpdatedAt != first.UpdatedAt {
		t.Fatalf("expected duplicate delivery to be a no-op, got %#v then %#v", first, second)
	}
}

func TestHandleEventStartingPhaseIsNoop(t *testing.T) {
	reconciler, st := newReconciler(t)

	ctx := context.Background()
	testsupport.NewSession(t, st, "RM_abc", "math-101")
	testsupport.NewRecording(t, st, "EG_start", "RM_abc", "math-101")

	event := &egress.WebhookEvent{
		EgressInfo: &egress.EgressInfo{
			EgressID: "EG_start",
			Status:   egress.RawStatus{Code: 0, IsCode: true},
		},
	}
	if err := reconciler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	rec, err := st.RecordingByJobID(ctx, "EG_start")
	if err != nil {
		t.Fatalf("RecordingByJobID failed: %v", err)
	}
	if rec.Status != store.StatusActive {
		t.Fatalf("expected row to stay active, got %s", rec.Status)
	}
}

func TestHandleEventMissingInfo(t *testing.T) {
	reconciler, _ := newReconciler(t)

	if err := reconciler.HandleEvent(context.Background(), &egress.WebhookEvent{Event: "room_started"}); err != nil {
		t.Fatalf("expected success for event without job info, got %v", err)
	}
	if err := reconciler.HandleEvent(context.Background(), nil); err != nil {
		t.Fatalf("expected success for nil event, got %v", err)
	}
}
