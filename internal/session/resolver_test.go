package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/testsupport"
)

func TestDeriveDisplayID(t *testing.T) {
	now := time.Date(2024, time.January, 15, 10, 30, 45, 0, time.UTC)
	got := session.DeriveDisplayID("math-101", now)
	want := "math-101_2024-01-15_10-30"
	if got != want {
		t.Fatalf("DeriveDisplayID = %q, want %q", got, want)
	}
}

func TestResolveCreatesThenFinds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())

	ctx := context.Background()
	created, err := resolver.Resolve(ctx, "RM_abc", "math-101", "en")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if created.SessionKey != "RM_abc" || created.RoomName != "math-101" {
		t.Fatalf("unexpected session: %#v", created)
	}

	found, err := resolver.Resolve(ctx, "RM_abc", "math-101-renamed", "en")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected same row, got %d and %d", created.ID, found.ID)
	}
	if found.RoomName != "math-101" {
		t.Fatalf("expected existing row returned unchanged, got %q", found.RoomName)
	}
}

func TestResolveConcurrentCallersConverge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())

	const callers = 8
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := resolver.Resolve(context.Background(), "RM_race", "math-101", "")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("callers observed different rows: %v", ids)
		}
	}

	sessions, err := st.ListSessions(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(sessions))
	}
}

func TestResolveRejectsMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())

	if _, err := resolver.Resolve(context.Background(), "", "math-101", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty key, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "RM_x", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty room, got %v", err)
	}
}

func TestEndUnknownSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())

	if _, err := resolver.End(context.Background(), "RM_missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEndStampsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := session.NewResolver(st, logging.NewNop())

	ctx := context.Background()
	if _, err := resolver.Resolve(ctx, "RM_end", "math-101", ""); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	first, err := resolver.End(ctx, "RM_end")
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if first.EndedAt == nil {
		t.Fatal("expected ended_at set")
	}

	second, err := resolver.End(ctx, "RM_end")
	if err != nil {
		t.Fatalf("second End failed: %v", err)
	}
	if second.EndedAt == nil || !second.EndedAt.Equal(*first.EndedAt) {
		t.Fatalf("expected ended_at to be stable, got %v then %v", first.EndedAt, second.EndedAt)
	}
}
