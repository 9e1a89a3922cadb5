package library

import (
	"time"

	"github.com/google/uuid"
)

// DragLease suspends bulk project-list replacement while a user-driven
// reorder gesture is in progress. The lease expires on its own after the
// store's TTL, so a crashed or unmounted interaction can never leave the
// gate stuck.
type DragLease struct {
	id    string
	store *Store
}

// ID returns the lease token.
func (l *DragLease) ID() string {
	return l.id
}

// End releases the lease. Idempotent; ending a superseded or expired lease
// is a no-op.
func (l *DragLease) End() {
	l.store.EndDrag(l.id)
}

// BeginDrag starts a drag gesture and returns its lease. Only one lease is
// active at a time; beginning a new drag supersedes the previous lease.
func (s *Store) BeginDrag() *DragLease {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.leaseID = id
	s.leaseExpiry = s.now().Add(s.leaseTTL)
	s.logger.Debug("drag lease issued", "lease_id", id)
	return &DragLease{id: id, store: s}
}

// EndDrag releases the lease with the given token if it is still active.
func (s *Store) EndDrag(leaseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leaseID != leaseID {
		return
	}
	s.leaseID = ""
	s.leaseExpiry = time.Time{}
}

// DragActive reports whether an unexpired drag lease is held.
func (s *Store) DragActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dragActiveLocked()
}

func (s *Store) dragActiveLocked() bool {
	return s.leaseID != "" && s.now().Before(s.leaseExpiry)
}
