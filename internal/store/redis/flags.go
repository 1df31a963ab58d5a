package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

// Store keeps the singleton record in a single Redis hash. A mutation
// is one HSET carrying the flag field and updated_at together, so the
// pair lands atomically and concurrent writers serialize in Redis
// (last writer wins).
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Load reads the record, self-healing a missing one to all-active.
func (s *Store) Load(ctx context.Context) (domain.ServiceState, error) {
	vals, err := s.client.HGetAll(ctx, KeyConfig).Result()
	if err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to read record: %v", store.ErrUnavailable, err)
	}

	if len(vals) == 0 {
		return s.ensureRecord(ctx)
	}
	return parseRecord(vals), nil
}

// SetFlag writes one flag plus updated_at in a single command.
func (s *Store) SetFlag(ctx context.Context, key domain.ServiceKey, flag domain.Flag, updatedAt time.Time) error {
	err := s.client.HSet(ctx, KeyConfig,
		store.Field(key), store.FlagValue(flag),
		store.FieldUpdatedAt, updatedAt.UTC().Format(store.TimeLayout),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to update %s: %v", store.ErrUnavailable, key, err)
	}
	return nil
}

// Ping reports Redis reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ensureRecord creates the default record without clobbering fields a
// concurrent writer may have set in the meantime: every field goes in
// with HSETNX, then the record is re-read.
func (s *Store) ensureRecord(ctx context.Context) (domain.ServiceState, error) {
	defaults := domain.NewServiceState(time.Now().UTC())

	pipe := s.client.Pipeline()
	for _, key := range domain.AllServiceKeys() {
		pipe.HSetNX(ctx, KeyConfig, store.Field(key), store.FlagValue(domain.FlagActive))
	}
	pipe.HSetNX(ctx, KeyConfig, store.FieldUpdatedAt, defaults.UpdatedAt.Format(store.TimeLayout))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to create record: %v", store.ErrUnavailable, err)
	}

	vals, err := s.client.HGetAll(ctx, KeyConfig).Result()
	if err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to re-read record: %v", store.ErrUnavailable, err)
	}
	return parseRecord(vals), nil
}

// parseRecord decodes the hash. Missing fields read as active, so a
// record created by a bare SetFlag is still complete.
func parseRecord(vals map[string]string) domain.ServiceState {
	var state domain.ServiceState
	for _, key := range domain.AllServiceKeys() {
		state.Set(key, store.ParseFlagValue(vals[store.Field(key)]))
	}
	if ts, err := time.Parse(store.TimeLayout, vals[store.FieldUpdatedAt]); err == nil {
		state.UpdatedAt = ts
	} else {
		state.UpdatedAt = time.Now().UTC()
	}
	return state
}
