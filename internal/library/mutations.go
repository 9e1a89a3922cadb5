package library

import (
	"context"

	"github.com/google/uuid"
)

// Every mutation follows one optimistic protocol:
//
//  1. resolve the target (current view first, flat list fallback) or fail
//     with NotFoundError,
//  2. compute the next value and no-op when it equals the current one (no
//     local write, no backend call, edit revision untouched),
//  3. capture the pre-mutation value,
//  4. apply the next value to both views, stamping the edit revision,
//  5. call the backend,
//  6. on success keep the optimistic state,
//  7. on failure restore the captured value to both views and return a
//     RemoteError.
//
// At most one mutation may be in flight per target; overlapping mutations
// are rejected with ErrMutationInFlight rather than racing each other's
// rollbacks.

// RenameCollection sets the collection's user-facing title.
func (s *Store) RenameCollection(ctx context.Context, projectID, collectionID, title string) error {
	return s.mutateCollection(ctx, "rename collection", projectID, collectionID,
		func(c *Collection) (*Collection, error) {
			next := c.Clone()
			next.Title = title
			return next, nil
		},
		func(ctx context.Context) error {
			return s.remote.UpdateCollection(ctx, projectID, collectionID, CollectionPatch{Title: &title})
		})
}

// UpdateCollectionSummary sets the collection's summary text.
func (s *Store) UpdateCollectionSummary(ctx context.Context, projectID, collectionID, summary string) error {
	return s.mutateCollection(ctx, "update collection summary", projectID, collectionID,
		func(c *Collection) (*Collection, error) {
			next := c.Clone()
			next.Summary = summary
			return next, nil
		},
		func(ctx context.Context) error {
			return s.remote.UpdateCollection(ctx, projectID, collectionID, CollectionPatch{Summary: &summary})
		})
}

// ReorderCollectionClips replaces the collection's clip order. The new order
// must contain exactly the ids already present; anything else is rejected
// with ErrOrderMismatch before any local or remote change.
func (s *Store) ReorderCollectionClips(ctx context.Context, projectID, collectionID string, order []string) error {
	var next []string
	err := s.mutateCollection(ctx, "reorder collection clips", projectID, collectionID,
		func(c *Collection) (*Collection, error) {
			if !sameIDSet(c.ClipIDs, order) {
				return nil, ErrOrderMismatch
			}
			out := c.Clone()
			out.ClipIDs = append([]string(nil), order...)
			next = out.ClipIDs
			return out, nil
		},
		func(ctx context.Context) error {
			return s.remote.UpdateCollection(ctx, projectID, collectionID, CollectionPatch{ClipIDs: next})
		})
	return err
}

// AddClipsToCollection appends clip ids that are not already present,
// preserving existing order and the order of the new ids. Ids already in
// the collection and duplicates within the input are filtered first, so an
// add that contributes nothing is a no-op.
func (s *Store) AddClipsToCollection(ctx context.Context, projectID, collectionID string, clipIDs []string) error {
	var next []string
	return s.mutateCollection(ctx, "add clips to collection", projectID, collectionID,
		func(c *Collection) (*Collection, error) {
			out := c.Clone()
			seen := make(map[string]struct{}, len(out.ClipIDs)+len(clipIDs))
			for _, id := range out.ClipIDs {
				seen[id] = struct{}{}
			}
			for _, id := range clipIDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out.ClipIDs = append(out.ClipIDs, id)
			}
			next = out.ClipIDs
			return out, nil
		},
		func(ctx context.Context) error {
			return s.remote.UpdateCollection(ctx, projectID, collectionID, CollectionPatch{ClipIDs: next})
		})
}

// RemoveClipFromCollection drops one clip id from the collection. Removing
// an id that is not present is a no-op.
func (s *Store) RemoveClipFromCollection(ctx context.Context, projectID, collectionID, clipID string) error {
	var next []string
	return s.mutateCollection(ctx, "remove clip from collection", projectID, collectionID,
		func(c *Collection) (*Collection, error) {
			out := c.Clone()
			kept := out.ClipIDs[:0]
			for _, id := range out.ClipIDs {
				if id != clipID {
					kept = append(kept, id)
				}
			}
			out.ClipIDs = kept
			next = out.ClipIDs
			return out, nil
		},
		func(ctx context.Context) error {
			return s.remote.UpdateCollection(ctx, projectID, collectionID, CollectionPatch{ClipIDs: next})
		})
}

// mutateCollection runs the optimistic protocol for an update to an existing
// collection. compute receives a copy of the current value and returns the
// desired next value; remote is only called when they differ.
func (s *Store) mutateCollection(ctx context.Context, op, projectID, collectionID string,
	compute func(*Collection) (*Collection, error), remote func(context.Context) error) error {

	key := projectID + "/" + collectionID

	s.mu.Lock()
	cur := s.lookupCollectionLocked(projectID, collectionID)
	if cur == nil {
		s.mu.Unlock()
		return &NotFoundError{Kind: "collection", ID: collectionID}
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	next, err := compute(cur.Clone())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if cur.Equal(next) {
		s.mu.Unlock()
		return nil
	}
	prev := cur.Clone()
	next.LocalRev = s.nextRevLocked()
	s.replaceCollectionLocked(projectID, next)
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	rerr := remote(ctx)

	s.mu.Lock()
	delete(s.inflight, key)
	if rerr != nil {
		s.replaceCollectionLocked(projectID, prev)
		s.mu.Unlock()
		s.logger.Warn("mutation rolled back",
			"op", op, "project_id", projectID, "collection_id", collectionID, "error", rerr)
		return &RemoteError{Op: op, Err: rerr}
	}
	s.mu.Unlock()
	return nil
}

// CreateCollection optimistically inserts a new manual collection with a
// locally pre-assigned id, then asks the backend to create it. On rejection
// the collection is removed again, so creation follows the same rollback
// protocol as every other mutation.
func (s *Store) CreateCollection(ctx context.Context, projectID string, c *Collection) (*Collection, error) {
	next := c.Clone()
	if next == nil {
		next = &Collection{}
	}
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if next.Type == "" {
		next.Type = CollectionTypeManual
	}
	next.ClipIDs = dedupe(next.ClipIDs)

	key := projectID + "/" + next.ID

	s.mu.Lock()
	targets := s.viewProjectsLocked(projectID)
	if len(targets) == 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "project", ID: projectID}
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	next.LocalRev = s.nextRevLocked()
	for _, p := range targets {
		p.Collections = append(p.Collections, next.Clone())
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	rerr := s.remote.CreateCollection(ctx, projectID, next.Clone())

	s.mu.Lock()
	delete(s.inflight, key)
	if rerr != nil {
		s.removeCollectionLocked(projectID, next.ID)
		s.mu.Unlock()
		s.logger.Warn("mutation rolled back",
			"op", "create collection", "project_id", projectID, "collection_id", next.ID, "error", rerr)
		return nil, &RemoteError{Op: "create collection", Err: rerr}
	}
	s.mu.Unlock()
	return next.Clone(), nil
}

// DeleteCollection optimistically removes the collection, restoring it at
// its original position if the backend rejects the delete.
func (s *Store) DeleteCollection(ctx context.Context, projectID, collectionID string) error {
	key := projectID + "/" + collectionID

	s.mu.Lock()
	cur := s.lookupCollectionLocked(projectID, collectionID)
	if cur == nil {
		s.mu.Unlock()
		return &NotFoundError{Kind: "collection", ID: collectionID}
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	prev := cur.Clone()
	prevIndex := s.collectionIndexLocked(projectID, collectionID)
	s.nextRevLocked()
	s.removeCollectionLocked(projectID, collectionID)
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	rerr := s.remote.DeleteCollection(ctx, projectID, collectionID)

	s.mu.Lock()
	delete(s.inflight, key)
	if rerr != nil {
		s.insertCollectionLocked(projectID, prev, prevIndex)
		s.mu.Unlock()
		s.logger.Warn("mutation rolled back",
			"op", "delete collection", "project_id", projectID, "collection_id", collectionID, "error", rerr)
		return &RemoteError{Op: "delete collection", Err: rerr}
	}
	s.mu.Unlock()
	return nil
}

// RenameClip sets a clip's user-editable title with the same optimistic
// protocol, keyed per clip.
func (s *Store) RenameClip(ctx context.Context, projectID, clipID, title string) error {
	key := projectID + "/clip/" + clipID

	s.mu.Lock()
	targets := s.viewProjectsLocked(projectID)
	var cur *Clip
	for _, p := range targets {
		if c := p.Clip(clipID); c != nil {
			cur = c
			break
		}
	}
	if cur == nil {
		s.mu.Unlock()
		return &NotFoundError{Kind: "clip", ID: clipID}
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrMutationInFlight
	}
	if cur.Title == title {
		s.mu.Unlock()
		return nil
	}
	prev := cur.Title
	s.nextRevLocked()
	for _, p := range targets {
		if c := p.Clip(clipID); c != nil {
			c.Title = title
		}
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	rerr := s.remote.UpdateClipTitle(ctx, projectID, clipID, title)

	s.mu.Lock()
	delete(s.inflight, key)
	if rerr != nil {
		for _, p := range s.viewProjectsLocked(projectID) {
			if c := p.Clip(clipID); c != nil {
				c.Title = prev
			}
		}
		s.mu.Unlock()
		s.logger.Warn("mutation rolled back",
			"op", "rename clip", "project_id", projectID, "clip_id", clipID, "error", rerr)
		return &RemoteError{Op: "rename clip", Err: rerr}
	}
	s.mu.Unlock()
	return nil
}

// replaceCollectionLocked swaps the stored collection value in both views.
func (s *Store) replaceCollectionLocked(projectID string, c *Collection) {
	for _, p := range s.viewProjectsLocked(projectID) {
		for i, existing := range p.Collections {
			if existing.ID == c.ID {
				p.Collections[i] = c.Clone()
				break
			}
		}
	}
}

func (s *Store) removeCollectionLocked(projectID, collectionID string) {
	for _, p := range s.viewProjectsLocked(projectID) {
		kept := p.Collections[:0]
		for _, c := range p.Collections {
			if c.ID != collectionID {
				kept = append(kept, c)
			}
		}
		p.Collections = kept
	}
}

func (s *Store) insertCollectionLocked(projectID string, c *Collection, index int) {
	for _, p := range s.viewProjectsLocked(projectID) {
		clone := c.Clone()
		if index < 0 || index >= len(p.Collections) {
			p.Collections = append(p.Collections, clone)
			continue
		}
		p.Collections = append(p.Collections[:index], append([]*Collection{clone}, p.Collections[index:]...)...)
	}
}

// collectionIndexLocked returns the collection's position in the preferred
// view, or -1.
func (s *Store) collectionIndexLocked(projectID, collectionID string) int {
	for _, p := range s.viewProjectsLocked(projectID) {
		for i, c := range p.Collections {
			if c.ID == collectionID {
				return i
			}
		}
	}
	return -1
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, id := range a {
		set[id]++
	}
	for _, id := range b {
		if set[id] == 0 {
			return false
		}
		set[id]--
	}
	return true
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
