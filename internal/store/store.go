// Package store defines the singleton-record contract shared by the
// redis and bolt backends. The record is four shutdown bits plus an
// updated_at timestamp; a write touches exactly one bit and the
// timestamp, atomically.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
)

// ErrUnavailable wraps backend connectivity failures so callers can
// distinguish them from data errors.
var ErrUnavailable = errors.New("store unavailable")

const (
	// FieldUpdatedAt is the wire name of the timestamp field.
	FieldUpdatedAt = "updated_at"

	// TimeLayout is the persisted timestamp format (ISO-8601).
	TimeLayout = time.RFC3339Nano
)

// Field returns the wire name of a service's shutdown bit,
// ex: "shutdown_api".
func Field(key domain.ServiceKey) string {
	return "shutdown_" + string(key)
}

// FlagValue encodes a flag for the wire: 0 = active, 1 = shutdown.
func FlagValue(flag domain.Flag) string {
	if flag == domain.FlagShutdown {
		return "1"
	}
	return "0"
}

// ParseFlagValue decodes a wire value. Anything other than "1" reads
// as active, matching the self-healed default.
func ParseFlagValue(raw string) domain.Flag {
	if raw == "1" {
		return domain.FlagShutdown
	}
	return domain.FlagActive
}

// Store is the durable home of the singleton ServiceState record.
type Store interface {
	// Load reads the record, creating it with all flags active if it
	// does not exist yet.
	Load(ctx context.Context) (domain.ServiceState, error)

	// SetFlag atomically updates one service's flag together with the
	// updated_at timestamp. The record is created first if absent.
	// Concurrent writes to the same flag serialize in the backend;
	// the later write wins.
	SetFlag(ctx context.Context, key domain.ServiceKey, flag domain.Flag, updatedAt time.Time) error

	// Ping reports backend reachability.
	Ping(ctx context.Context) error

	Close() error
}
