package domain

import (
	"fmt"
	"time"
)

// ServiceKey identifies one of the four controllable services.
type ServiceKey string

const (
	KeyWebsite   ServiceKey = "website"
	KeyAPI       ServiceKey = "api"
	KeyDashboard ServiceKey = "dashboard"
	KeyAdmin     ServiceKey = "admin"
)

// AllServiceKeys returns the fixed set of service keys in display order.
func AllServiceKeys() []ServiceKey {
	return []ServiceKey{KeyWebsite, KeyAPI, KeyDashboard, KeyAdmin}
}

// ParseServiceKey validates a raw string against the fixed key set.
func ParseServiceKey(raw string) (ServiceKey, error) {
	switch ServiceKey(raw) {
	case KeyWebsite, KeyAPI, KeyDashboard, KeyAdmin:
		return ServiceKey(raw), nil
	}
	return "", fmt.Errorf("unknown service key: %q", raw)
}

// Flag is the persisted binary state of a service.
type Flag uint8

const (
	FlagActive Flag = iota
	FlagShutdown
)

// FlagFromActive translates the wire-level active bit into a Flag.
func FlagFromActive(active bool) Flag {
	if active {
		return FlagActive
	}
	return FlagShutdown
}

// Active reports whether the flag represents a running service.
func (f Flag) Active() bool { return f == FlagActive }

func (f Flag) String() string {
	if f == FlagShutdown {
		return "SHUTDOWN"
	}
	return "ACTIVE"
}

// Human returns the operator-facing label shown in confirmations.
func (f Flag) Human() string {
	if f == FlagShutdown {
		return "SPENTO"
	}
	return "ACCESO"
}

// ServiceState is the singleton record: one flag per service plus the
// timestamp of the last mutation. It is only ever written one field at
// a time through the store, never as a whole-record read-modify-write.
type ServiceState struct {
	Website   Flag
	API       Flag
	Dashboard Flag
	Admin     Flag
	UpdatedAt time.Time
}

// NewServiceState returns the self-healed default: all services active.
func NewServiceState(now time.Time) ServiceState {
	return ServiceState{UpdatedAt: now}
}

// Get returns the flag for a key. Unknown keys report ACTIVE, matching
// the safe read fallback.
func (s ServiceState) Get(key ServiceKey) Flag {
	switch key {
	case KeyWebsite:
		return s.Website
	case KeyAPI:
		return s.API
	case KeyDashboard:
		return s.Dashboard
	case KeyAdmin:
		return s.Admin
	}
	return FlagActive
}

// Set assigns the flag for a key.
func (s *ServiceState) Set(key ServiceKey, flag Flag) {
	switch key {
	case KeyWebsite:
		s.Website = flag
	case KeyAPI:
		s.API = flag
	case KeyDashboard:
		s.Dashboard = flag
	case KeyAdmin:
		s.Admin = flag
	}
}

// Flags returns the record as a key -> flag mapping.
func (s ServiceState) Flags() map[ServiceKey]Flag {
	return map[ServiceKey]Flag{
		KeyWebsite:   s.Website,
		KeyAPI:       s.API,
		KeyDashboard: s.Dashboard,
		KeyAdmin:     s.Admin,
	}
}
