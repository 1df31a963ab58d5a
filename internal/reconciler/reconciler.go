// Package reconciler implements the client-side optimistic-update
// state machine. Each service is independently either Synced(value) or
// Pending(optimistic, prior); a toggle applies immediately and the
// mutation outcome later confirms or reverts it. The machine is
// deterministic and knows nothing about rendering or transport.
package reconciler

import (
	"sync"

	"github.com/MrSnakeDoc/switchboard/internal/domain"
)

// Phase is the per-service reconciliation phase.
type Phase uint8

const (
	Synced Phase = iota
	Pending
)

type entry struct {
	phase Phase
	value bool // displayed value (optimistic while Pending)
	prior bool // value before the toggle, for revert
}

type Reconciler struct {
	mu      sync.Mutex
	entries map[domain.ServiceKey]*entry
}

// New starts every service in Synced with its server-provided value.
func New(initial map[domain.ServiceKey]bool) *Reconciler {
	r := &Reconciler{entries: make(map[domain.ServiceKey]*entry, len(initial))}
	for key, v := range initial {
		r.entries[key] = &entry{phase: Synced, value: v, prior: v}
	}
	return r
}

// Toggle flips the displayed value optimistically and enters Pending.
// It refuses while a mutation for the same key is already in flight,
// or for a key the reconciler does not track; other services stay
// independently operable.
func (r *Reconciler) Toggle(key domain.ServiceKey) (target bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[key]
	if !exists || e.phase == Pending {
		return false, false
	}
	e.prior = e.value
	e.value = !e.value
	e.phase = Pending
	return e.value, true
}

// Confirm resolves a Pending toggle as successful: the optimistic
// value becomes the synced value. The caller then re-fetches the
// authoritative record and applies it with Resync.
func (r *Reconciler) Confirm(key domain.ServiceKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[key]
	if !exists || e.phase != Pending {
		return false
	}
	e.phase = Synced
	e.prior = e.value
	return true
}

// Revert resolves a Pending toggle as failed: the displayed value
// returns to what it was immediately before the toggle.
func (r *Reconciler) Revert(key domain.ServiceKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[key]
	if !exists || e.phase != Pending {
		return false
	}
	e.phase = Synced
	e.value = e.prior
	return true
}

// Resync applies a freshly fetched authoritative record. Services
// still Pending keep their optimistic value; their own resolution will
// settle them.
func (r *Reconciler) Resync(state map[domain.ServiceKey]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, v := range state {
		e, exists := r.entries[key]
		if !exists {
			r.entries[key] = &entry{phase: Synced, value: v, prior: v}
			continue
		}
		if e.phase == Pending {
			continue
		}
		e.value = v
		e.prior = v
	}
}

// Displayed returns the value currently shown for a key.
func (r *Reconciler) Displayed(key domain.ServiceKey) (value bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[key]
	if !exists {
		return false, false
	}
	return e.value, true
}

// IsPending reports whether a mutation for the key is in flight; the
// caller disables the corresponding control while true.
func (r *Reconciler) IsPending(key domain.ServiceKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[key]
	return exists && e.phase == Pending
}

// Snapshot returns all displayed values.
func (r *Reconciler) Snapshot() map[domain.ServiceKey]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[domain.ServiceKey]bool, len(r.entries))
	for key, e := range r.entries {
		out[key] = e.value
	}
	return out
}
