// Package mutator turns a validated toggle request into a durable,
// race-safe update of the singleton record and a structured outcome.
package mutator

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/catalog"
	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

// Result is the outcome surfaced to the caller. OK=false means the
// store rejected the write and the record is unchanged.
type Result struct {
	OK        bool   `json:"ok"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"ts"`
}

type Mutator struct {
	store   store.Store
	catalog *catalog.Catalog
	logger  logger.Logger
	now     func() time.Time
}

func New(st store.Store, cat *catalog.Catalog, log logger.Logger) *Mutator {
	return &Mutator{
		store:   st,
		catalog: cat,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// SetFlag applies the requested transition. The caller has already
// passed the session gate and validated the key; repeating the same
// value is a no-op that still refreshes the timestamp and never errors.
func (m *Mutator) SetFlag(ctx context.Context, key domain.ServiceKey, active bool) Result {
	flag := domain.FlagFromActive(active)
	now := m.now().UTC()
	entry := m.catalog.Entry(key)

	if err := m.store.SetFlag(ctx, key, flag, now); err != nil {
		m.logger.Error("flag update failed",
			logger.String("service", string(key)),
			logger.String("target", flag.String()),
			logger.Error(err))
		return Result{
			OK:        false,
			Title:     entry.Title,
			Message:   err.Error(),
			Timestamp: now.Format(store.TimeLayout),
		}
	}

	m.logger.Info("flag updated",
		logger.String("service", string(key)),
		logger.String("state", flag.String()))

	return Result{
		OK:        true,
		Title:     entry.Title,
		Message:   fmt.Sprintf("%s %s %s.", entry.Title, entry.SetForm, flag.Human()),
		Timestamp: now.Format(store.TimeLayout),
	}
}

// FetchAll re-reads the authoritative record.
func (m *Mutator) FetchAll(ctx context.Context) (domain.ServiceState, error) {
	return m.store.Load(ctx)
}

// FetchAllSafe reads the record, degrading to all-active on store
// failure so a transient backend issue never locks the admin out of
// the control surface. The second return reports degraded mode.
func (m *Mutator) FetchAllSafe(ctx context.Context) (domain.ServiceState, bool) {
	state, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("state read failed, falling back to all-active",
			logger.Error(err))
		return domain.NewServiceState(m.now().UTC()), true
	}
	return state, false
}
