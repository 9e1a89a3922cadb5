package library

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Remote is the backend surface the mutation engine calls after applying an
// optimistic local change. A non-nil error from any call triggers rollback.
type Remote interface {
	UpdateCollection(ctx context.Context, projectID, collectionID string, patch CollectionPatch) error
	CreateCollection(ctx context.Context, projectID string, collection *Collection) error
	DeleteCollection(ctx context.Context, projectID, collectionID string) error
	UpdateClipTitle(ctx context.Context, projectID, clipID, title string) error
}

// DefaultDragLeaseTTL bounds how long an abandoned drag gesture can suppress
// bulk project refreshes.
const DefaultDragLeaseTTL = 30 * time.Second

// Store is the canonical in-memory view of projects, clips, and collections.
// It keeps two consumer views of the same data: the flat project list and a
// single "current" project holding an independent copy (the detail view the
// user is working in). Mutations resolve against the current view first and
// apply to both, so either view is safe to render from.
//
// Store is safe for concurrent use. Read accessors return deep copies; the
// store's own entities are never handed out.
type Store struct {
	remote Remote
	logger *slog.Logger

	mu       sync.RWMutex
	projects []*Project
	byID     map[string]*Project
	current  *Project
	editRev  int64
	inflight map[string]struct{}

	leaseID     string
	leaseExpiry time.Time
	leaseTTL    time.Duration

	now func() time.Time
}

// NewStore creates an empty store backed by the given remote.
func NewStore(remote Remote, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		remote:   remote,
		logger:   logger,
		byID:     make(map[string]*Project),
		inflight: make(map[string]struct{}),
		leaseTTL: DefaultDragLeaseTTL,
		now:      time.Now,
	}
}

// SetDragLeaseTTL overrides the expiry applied to drag leases.
func (s *Store) SetDragLeaseTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		s.leaseTTL = ttl
	}
}

// Projects returns a copy of the flat project list in display order.
func (s *Store) Projects() []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// Project returns a copy of the project with the given id from either view,
// preferring the current one.
func (s *Store) Project(id string) (*Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil && s.current.ID == id {
		return s.current.Clone(), true
	}
	if p, ok := s.byID[id]; ok {
		return p.Clone(), true
	}
	return nil, false
}

// CurrentProject returns a copy of the current-project view, if one is set.
func (s *Store) CurrentProject() (*Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// SetCurrentProject replaces the current-project view with a copy of p.
// Passing nil clears it.
func (s *Store) SetCurrentProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p.Clone()
}

// ReplaceProjects swaps the whole flat list, e.g. from a background refresh.
// The replacement is dropped while a drag lease is active so a reorder in
// progress is not clobbered by a list fetched before the drag began. Returns
// false when the replacement was dropped.
func (s *Store) ReplaceProjects(projects []*Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragActiveLocked() {
		s.logger.Debug("project list replacement dropped, drag in progress", "lease_id", s.leaseID)
		return false
	}
	s.setProjectsLocked(projects)
	return true
}

// UpdateProject upserts a single project into both views. Unlike
// ReplaceProjects this is entity-scoped and never gated.
func (s *Store) UpdateProject(p *Project) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := p.Clone()
	if existing, ok := s.byID[p.ID]; ok {
		for i, entry := range s.projects {
			if entry == existing {
				s.projects[i] = clone
				break
			}
		}
	} else {
		s.projects = append(s.projects, clone)
	}
	s.byID[p.ID] = clone
	if s.current != nil && s.current.ID == p.ID {
		s.current = p.Clone()
	}
}

// Collection returns a copy of the collection, resolved from the current
// view first with the flat list as fallback.
func (s *Store) Collection(projectID, collectionID string) (*Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.lookupCollectionLocked(projectID, collectionID)
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

// ResolveClips maps clip ids to copies of the project's clips, preserving
// order. Ids without a matching clip are silently excluded.
func (s *Store) ResolveClips(projectID string, clipIDs []string) []*Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.lookupProjectLocked(projectID)
	if p == nil {
		return nil
	}
	out := make([]*Clip, 0, len(clipIDs))
	for _, id := range clipIDs {
		if c := p.Clip(id); c != nil {
			out = append(out, c.Clone())
		}
	}
	return out
}

// CollectionClips returns copies of the clips referenced by a collection in
// playlist order, excluding dangling ids.
func (s *Store) CollectionClips(projectID, collectionID string) ([]*Clip, bool) {
	s.mu.RLock()
	c := s.lookupCollectionLocked(projectID, collectionID)
	if c == nil {
		s.mu.RUnlock()
		return nil, false
	}
	ids := append([]string(nil), c.ClipIDs...)
	s.mu.RUnlock()
	return s.ResolveClips(projectID, ids), true
}

// EditRev returns the store's monotonically increasing local edit revision.
// It advances only when a mutation actually changes state.
func (s *Store) EditRev() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editRev
}

func (s *Store) setProjectsLocked(projects []*Project) {
	s.projects = make([]*Project, 0, len(projects))
	s.byID = make(map[string]*Project, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		clone := p.Clone()
		s.projects = append(s.projects, clone)
		s.byID[p.ID] = clone
	}
}

// lookupProjectLocked prefers the current view and falls back to the flat
// list. Callers must hold s.mu.
func (s *Store) lookupProjectLocked(projectID string) *Project {
	if s.current != nil && s.current.ID == projectID {
		return s.current
	}
	return s.byID[projectID]
}

func (s *Store) lookupCollectionLocked(projectID, collectionID string) *Collection {
	if s.current != nil && s.current.ID == projectID {
		if c := s.current.Collection(collectionID); c != nil {
			return c
		}
	}
	if p := s.byID[projectID]; p != nil {
		return p.Collection(collectionID)
	}
	return nil
}

// viewProjectsLocked returns the store-owned project entries matching the id
// in each view. Both entries are returned when the project appears in the
// current view and the flat list, so a mutation lands in both.
func (s *Store) viewProjectsLocked(projectID string) []*Project {
	var targets []*Project
	if s.current != nil && s.current.ID == projectID {
		targets = append(targets, s.current)
	}
	if p := s.byID[projectID]; p != nil {
		targets = append(targets, p)
	}
	return targets
}

func (s *Store) nextRevLocked() int64 {
	s.editRev++
	return s.editRev
}
