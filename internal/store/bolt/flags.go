// Package bolt backs the singleton record with an embedded bbolt file
// for single-node deployments that do not run a Redis. Each wire field
// is one key inside a single bucket; a mutation is one write
// transaction, which bbolt serializes (last writer wins).
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
	"github.com/MrSnakeDoc/switchboard/internal/store"
)

var bucketConfig = []byte("config")

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", store.ErrUnavailable, path, err)
	}
	return &Store{db: db}, nil
}

// Load reads the record, self-healing a missing one to all-active.
func (s *Store) Load(ctx context.Context) (domain.ServiceState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ServiceState{}, err
	}

	var state domain.ServiceState
	var missing bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConfig)
		if b == nil {
			missing = true
			return nil
		}
		state = readRecord(b)
		return nil
	})
	if err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to read record: %v", store.ErrUnavailable, err)
	}
	if missing {
		return s.ensureRecord()
	}
	return state, nil
}

// SetFlag writes one flag plus updated_at inside a single transaction.
func (s *Store) SetFlag(ctx context.Context, key domain.ServiceKey, flag domain.Flag, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketConfig)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(store.Field(key)), []byte(store.FlagValue(flag))); err != nil {
			return err
		}
		return b.Put([]byte(store.FieldUpdatedAt), []byte(updatedAt.UTC().Format(store.TimeLayout)))
	})
	if err != nil {
		return fmt.Errorf("%w: failed to update %s: %v", store.ErrUnavailable, key, err)
	}
	return nil
}

// Ping verifies the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.View(func(tx *bolt.Tx) error { return nil })
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureRecord() (domain.ServiceState, error) {
	defaults := domain.NewServiceState(time.Now().UTC())

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketConfig)
		if err != nil {
			return err
		}
		for _, key := range domain.AllServiceKeys() {
			field := []byte(store.Field(key))
			if b.Get(field) == nil {
				if err := b.Put(field, []byte(store.FlagValue(domain.FlagActive))); err != nil {
					return err
				}
			}
		}
		if b.Get([]byte(store.FieldUpdatedAt)) == nil {
			return b.Put([]byte(store.FieldUpdatedAt), []byte(defaults.UpdatedAt.Format(store.TimeLayout)))
		}
		return nil
	})
	if err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to create record: %v", store.ErrUnavailable, err)
	}

	var state domain.ServiceState
	err = s.db.View(func(tx *bolt.Tx) error {
		state = readRecord(tx.Bucket(bucketConfig))
		return nil
	})
	if err != nil {
		return domain.ServiceState{}, fmt.Errorf("%w: failed to re-read record: %v", store.ErrUnavailable, err)
	}
	return state, nil
}

func readRecord(b *bolt.Bucket) domain.ServiceState {
	var state domain.ServiceState
	for _, key := range domain.AllServiceKeys() {
		state.Set(key, store.ParseFlagValue(string(b.Get([]byte(store.Field(key))))))
	}
	if ts, err := time.Parse(store.TimeLayout, string(b.Get([]byte(store.FieldUpdatedAt)))); err == nil {
		state.UpdatedAt = ts
	} else {
		state.UpdatedAt = time.Now().UTC()
	}
	return state
}
