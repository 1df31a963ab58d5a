package mutator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/switchboard/internal/catalog"
	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

// fakeStore keeps the record in memory and can simulate write failures.
type fakeStore struct {
	state   domain.ServiceState
	created bool
	failSet error
	failGet error
}

func (f *fakeStore) Load(ctx context.Context) (domain.ServiceState, error) {
	if f.failGet != nil {
		return domain.ServiceState{}, f.failGet
	}
	if !f.created {
		f.state = domain.NewServiceState(time.Now().UTC())
		f.created = true
	}
	return f.state, nil
}

func (f *fakeStore) SetFlag(ctx context.Context, key domain.ServiceKey, flag domain.Flag, updatedAt time.Time) error {
	if f.failSet != nil {
		return f.failSet
	}
	f.created = true
	f.state.Set(key, flag)
	f.state.UpdatedAt = updatedAt
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func newTestMutator(fs *fakeStore) *Mutator {
	return New(fs, catalog.Default(), logger.New("error", false))
}

func TestSetFlagRoundTripAllKeys(t *testing.T) {
	ctx := context.Background()

	for _, key := range domain.AllServiceKeys() {
		for _, active := range []bool{false, true} {
			fs := &fakeStore{}
			m := newTestMutator(fs)

			res := m.SetFlag(ctx, key, active)
			if !res.OK {
				t.Fatalf("SetFlag(%s, %v) not OK: %s", key, active, res.Message)
			}

			state, err := m.FetchAll(ctx)
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			if got := state.Get(key).Active(); got != active {
				t.Errorf("after SetFlag(%s, %v): active = %v", key, active, got)
			}
			for _, other := range domain.AllServiceKeys() {
				if other != key && !state.Get(other).Active() {
					t.Errorf("SetFlag(%s) changed unrelated key %s", key, other)
				}
			}
		}
	}
}

func TestSetFlagShutdownMessage(t *testing.T) {
	m := newTestMutator(&fakeStore{})

	res := m.SetFlag(context.Background(), domain.KeyAPI, false)
	if !res.OK {
		t.Fatalf("SetFlag() not OK: %s", res.Message)
	}
	if res.Title != "API" {
		t.Errorf("title = %q, want %q", res.Title, "API")
	}
	if !strings.Contains(res.Message, "SPENTO") {
		t.Errorf("message = %q, want SPENTO marker", res.Message)
	}
	if res.Timestamp == "" {
		t.Error("timestamp is empty")
	}
	if _, err := time.Parse(store.TimeLayout, res.Timestamp); err != nil {
		t.Errorf("timestamp %q not parseable: %v", res.Timestamp, err)
	}
}

func TestSetFlagActiveMessage(t *testing.T) {
	m := newTestMutator(&fakeStore{})

	res := m.SetFlag(context.Background(), domain.KeyWebsite, true)
	if !res.OK {
		t.Fatalf("SetFlag() not OK: %s", res.Message)
	}
	if !strings.Contains(res.Message, "ACCESO") {
		t.Errorf("message = %q, want ACCESO marker", res.Message)
	}
}

func TestSetFlagStoreFailureLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{}
	m := newTestMutator(fs)

	if res := m.SetFlag(ctx, domain.KeyDashboard, false); !res.OK {
		t.Fatalf("seed SetFlag() not OK: %s", res.Message)
	}
	before, err := m.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	fs.failSet = errors.New("connection refused")
	res := m.SetFlag(ctx, domain.KeyDashboard, true)
	if res.OK {
		t.Fatal("SetFlag() with failing store = OK, want failure")
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Errorf("message = %q, want store error surfaced verbatim", res.Message)
	}

	fs.failSet = nil
	after, err := m.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("record changed across failed write (-before +after):\n%s", diff)
	}
}

func TestSetFlagIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{}
	m := newTestMutator(fs)

	first := m.SetFlag(ctx, domain.KeyAdmin, false)
	second := m.SetFlag(ctx, domain.KeyAdmin, false)
	if !first.OK || !second.OK {
		t.Fatal("repeated SetFlag() with the same value must not error")
	}
	state, err := m.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if state.Get(domain.KeyAdmin).Active() {
		t.Error("admin = ACTIVE, want SHUTDOWN after both writes")
	}
}

func TestLastWriterWins(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticks := 0
	m := newTestMutator(fs).WithClock(func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Millisecond)
	})

	m.SetFlag(ctx, domain.KeyAPI, false)
	m.SetFlag(ctx, domain.KeyAPI, true)

	state, err := m.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if !state.Get(domain.KeyAPI).Active() {
		t.Error("api = SHUTDOWN, want ACTIVE (later write wins)")
	}
	if !state.UpdatedAt.Equal(base.Add(2 * time.Millisecond)) {
		t.Errorf("UpdatedAt = %v, want the later write's timestamp", state.UpdatedAt)
	}
}

func TestFetchAllSafeDegrades(t *testing.T) {
	fs := &fakeStore{failGet: store.ErrUnavailable}
	m := newTestMutator(fs)

	state, degraded := m.FetchAllSafe(context.Background())
	if !degraded {
		t.Error("FetchAllSafe() degraded = false, want true")
	}
	for key, flag := range state.Flags() {
		if !flag.Active() {
			t.Errorf("degraded fallback: %s = %v, want ACTIVE", key, flag)
		}
	}
}
