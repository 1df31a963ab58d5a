package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestLoadFreshDeploymentSelfHeals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for key, flag := range state.Flags() {
		if !flag.Active() {
			t.Errorf("fresh record: %s = %v, want ACTIVE", key, flag)
		}
	}
	if state.UpdatedAt.IsZero() {
		t.Error("fresh record: UpdatedAt is zero, want generated timestamp")
	}

	// The record must now exist: a second load returns the same timestamp.
	again, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() second call error = %v", err)
	}
	if !again.UpdatedAt.Equal(state.UpdatedAt) {
		t.Errorf("second Load() UpdatedAt = %v, want %v (record should persist)",
			again.UpdatedAt, state.UpdatedAt)
	}
}

func TestSetFlagRoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, key := range domain.AllServiceKeys() {
		for _, flag := range []domain.Flag{domain.FlagShutdown, domain.FlagActive} {
			t.Run(string(key)+"_"+flag.String(), func(t *testing.T) {
				s := openTestStore(t)
				ts := time.Now().UTC().Truncate(time.Millisecond)

				if err := s.SetFlag(ctx, key, flag, ts); err != nil {
					t.Fatalf("SetFlag() error = %v", err)
				}
				state, err := s.Load(ctx)
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if got := state.Get(key); got != flag {
					t.Errorf("Get(%s) = %v, want %v", key, got, flag)
				}
				if !state.UpdatedAt.Equal(ts) {
					t.Errorf("UpdatedAt = %v, want %v", state.UpdatedAt, ts)
				}

				// All other keys stay at default.
				want := domain.NewServiceState(state.UpdatedAt)
				want.Set(key, flag)
				if diff := cmp.Diff(want.Flags(), state.Flags()); diff != "" {
					t.Errorf("flags mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestSetFlagLastWriterWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(50 * time.Millisecond)

	if err := s.SetFlag(ctx, domain.KeyAPI, domain.FlagShutdown, first); err != nil {
		t.Fatalf("SetFlag() first write error = %v", err)
	}
	if err := s.SetFlag(ctx, domain.KeyAPI, domain.FlagActive, second); err != nil {
		t.Fatalf("SetFlag() second write error = %v", err)
	}

	state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := state.Get(domain.KeyAPI); got != domain.FlagActive {
		t.Errorf("api = %v, want ACTIVE (later write wins)", got)
	}
	if !state.UpdatedAt.Equal(second) {
		t.Errorf("UpdatedAt = %v, want %v (later write wins)", state.UpdatedAt, second)
	}
}

func TestSetFlagCreatesRecordIfAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	// Mutation before any Load: the record comes into existence with the
	// written flag, all other services reading as active.
	if err := s.SetFlag(ctx, domain.KeyWebsite, domain.FlagShutdown, ts); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.Get(domain.KeyWebsite) != domain.FlagShutdown {
		t.Error("website = ACTIVE, want SHUTDOWN")
	}
	for _, key := range []domain.ServiceKey{domain.KeyAPI, domain.KeyDashboard, domain.KeyAdmin} {
		if !state.Get(key).Active() {
			t.Errorf("%s = SHUTDOWN, want ACTIVE", key)
		}
	}
}

func TestPingAfterClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on open store error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close() = nil, want error")
	}
}
