package library

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func collectionIDs(t *testing.T, store *Store, projectID, collectionID string) []string {
	t.Helper()
	c, ok := store.Collection(projectID, collectionID)
	if !ok {
		t.Fatalf("collection %s not found", collectionID)
	}
	return c.ClipIDs
}

func TestStore_RenameCollection(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.RenameCollection(context.Background(), "p1", "col1", "Highlights v2"); err != nil {
		t.Fatalf("RenameCollection() error = %v", err)
	}

	c, _ := store.Collection("p1", "col1")
	if c.Title != "Highlights v2" {
		t.Errorf("Title = %s, want Highlights v2", c.Title)
	}
	if remote.callCount() != 1 {
		t.Errorf("remote calls = %d, want 1", remote.callCount())
	}
	if store.EditRev() != 1 {
		t.Errorf("EditRev() = %d, want 1", store.EditRev())
	}
}

func TestStore_RenameCollection_NoOp(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.RenameCollection(context.Background(), "p1", "col1", "Best Moments"); err != nil {
		t.Fatalf("RenameCollection() error = %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("no-op rename issued %d remote calls, want 0", remote.callCount())
	}
	if store.EditRev() != 0 {
		t.Errorf("no-op rename advanced EditRev to %d", store.EditRev())
	}
}

func TestStore_RenameCollection_RollsBackOnRejection(t *testing.T) {
	store, remote := newTestStore(t)
	p, _ := store.Project("p1")
	store.SetCurrentProject(p)

	remote.err = errors.New("backend said no")
	err := store.RenameCollection(context.Background(), "p1", "col1", "Doomed")

	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("RenameCollection() error = %v, want *RemoteError", err)
	}

	// Restored in the current view and the flat list alike.
	cur, _ := store.CurrentProject()
	if cur.Collection("col1").Title != "Best Moments" {
		t.Errorf("current view title = %s, want Best Moments", cur.Collection("col1").Title)
	}
	flat := store.Projects()[0]
	if flat.Collection("col1").Title != "Best Moments" {
		t.Errorf("flat view title = %s, want Best Moments", flat.Collection("col1").Title)
	}
}

func TestStore_UpdateCollectionSummary(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.UpdateCollectionSummary(context.Background(), "p1", "col1", "curated"); err != nil {
		t.Fatalf("UpdateCollectionSummary() error = %v", err)
	}
	c, _ := store.Collection("p1", "col1")
	if c.Summary != "curated" {
		t.Errorf("Summary = %s, want curated", c.Summary)
	}
}

func TestStore_ReorderCollectionClips(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.ReorderCollectionClips(context.Background(), "p1", "col1", []string{"c", "a", "b"}); err != nil {
		t.Fatalf("ReorderCollectionClips() error = %v", err)
	}
	got := collectionIDs(t, store, "p1", "col1")
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("ClipIDs = %v, want [c a b]", got)
	}
}

func TestStore_ReorderCollectionClips_NoOp(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.ReorderCollectionClips(context.Background(), "p1", "col1", []string{"a", "b", "c"}); err != nil {
		t.Fatalf("ReorderCollectionClips() error = %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("identical order issued %d remote calls, want 0", remote.callCount())
	}
	if store.EditRev() != 0 {
		t.Errorf("identical order advanced EditRev to %d", store.EditRev())
	}
}

func TestStore_ReorderCollectionClips_SetMismatch(t *testing.T) {
	store, remote := newTestStore(t)

	cases := [][]string{
		{"a", "b"},                // missing id
		{"a", "b", "c", "d"},      // extra id
		{"a", "b", "ghost"},       // swapped id
		{"a", "a", "b"},           // duplicate masking a missing id
	}
	for _, order := range cases {
		err := store.ReorderCollectionClips(context.Background(), "p1", "col1", order)
		if !errors.Is(err, ErrOrderMismatch) {
			t.Errorf("ReorderCollectionClips(%v) error = %v, want ErrOrderMismatch", order, err)
		}
	}
	if remote.callCount() != 0 {
		t.Errorf("rejected reorders reached the backend %d times", remote.callCount())
	}
	got := collectionIDs(t, store, "p1", "col1")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("ClipIDs mutated by rejected reorder: %v", got)
	}
}

func TestStore_ReorderCollectionClips_RollsBackOnRejection(t *testing.T) {
	store, remote := newTestStore(t)
	remote.err = errors.New("conflict")

	err := store.ReorderCollectionClips(context.Background(), "p1", "col1", []string{"c", "a", "b"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	got := collectionIDs(t, store, "p1", "col1")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("ClipIDs after rollback = %v, want original [a b c]", got)
	}
}

func TestStore_AddClipsToCollection(t *testing.T) {
	store, _ := newTestStore(t)

	// Seed a clip outside the collection.
	p, _ := store.Project("p1")
	p.Clips = append(p.Clips, &Clip{ID: "d", StartTime: "00:06:00,000", EndTime: "00:06:10,000"})
	store.UpdateProject(p)

	if err := store.AddClipsToCollection(context.Background(), "p1", "col1", []string{"d", "a", "d"}); err != nil {
		t.Fatalf("AddClipsToCollection() error = %v", err)
	}
	got := collectionIDs(t, store, "p1", "col1")
	if !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("ClipIDs = %v, want [a b c d]", got)
	}
}

func TestStore_AddClipsToCollection_AllPresent(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.AddClipsToCollection(context.Background(), "p1", "col1", []string{"a", "c"}); err != nil {
		t.Fatalf("AddClipsToCollection() error = %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("adding already-present ids issued %d remote calls, want 0", remote.callCount())
	}
	if store.EditRev() != 0 {
		t.Errorf("no-op add advanced EditRev to %d", store.EditRev())
	}
}

func TestStore_RemoveClipFromCollection(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.RemoveClipFromCollection(context.Background(), "p1", "col1", "b"); err != nil {
		t.Fatalf("RemoveClipFromCollection() error = %v", err)
	}
	got := collectionIDs(t, store, "p1", "col1")
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("ClipIDs = %v, want [a c]", got)
	}
}

func TestStore_RemoveClipFromCollection_Absent(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.RemoveClipFromCollection(context.Background(), "p1", "col1", "ghost"); err != nil {
		t.Fatalf("RemoveClipFromCollection() error = %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("removing an absent id issued %d remote calls, want 0", remote.callCount())
	}
}

func TestStore_Mutation_CollectionNotFound(t *testing.T) {
	store, remote := newTestStore(t)

	err := store.RenameCollection(context.Background(), "p1", "nope", "x")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.Kind != "collection" {
		t.Errorf("NotFoundError.Kind = %s, want collection", nf.Kind)
	}
	if remote.callCount() != 0 {
		t.Errorf("not-found mutation reached the backend")
	}
}

func TestStore_Mutation_SingleFlight(t *testing.T) {
	store, remote := newTestStore(t)
	remote.started = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		first <- store.RenameCollection(context.Background(), "p1", "col1", "slow rename")
	}()

	<-remote.started

	// Overlapping mutation on the same collection is rejected outright.
	err := store.UpdateCollectionSummary(context.Background(), "p1", "col1", "too soon")
	if !errors.Is(err, ErrMutationInFlight) {
		t.Errorf("overlapping mutation error = %v, want ErrMutationInFlight", err)
	}

	close(remote.release)
	if err := <-first; err != nil {
		t.Fatalf("first mutation error = %v", err)
	}

	// After the first settles the collection accepts mutations again.
	remote.started = nil
	if err := store.UpdateCollectionSummary(context.Background(), "p1", "col1", "after"); err != nil {
		t.Errorf("post-settle mutation error = %v", err)
	}
}

func TestStore_Mutation_SingleFlight_DistinctTargets(t *testing.T) {
	store, remote := newTestStore(t)

	p, _ := store.Project("p1")
	p.Collections = append(p.Collections, &Collection{
		ID: "col2", Title: "Manual picks", ClipIDs: []string{"a"}, Type: CollectionTypeManual,
	})
	store.UpdateProject(p)

	remote.started = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		first <- store.RenameCollection(context.Background(), "p1", "col1", "busy")
	}()
	<-remote.started
	remote.mu.Lock()
	remote.started = nil
	remote.mu.Unlock()

	// A different collection is not blocked by col1's in-flight mutation.
	if err := store.RenameCollection(context.Background(), "p1", "col2", "independent"); err != nil {
		t.Errorf("mutation on distinct collection error = %v", err)
	}

	close(remote.release)
	if err := <-first; err != nil {
		t.Fatalf("first mutation error = %v", err)
	}
}

func TestStore_CreateCollection(t *testing.T) {
	store, remote := newTestStore(t)

	created, err := store.CreateCollection(context.Background(), "p1", &Collection{
		Title:   "My picks",
		ClipIDs: []string{"a", "c", "a"},
	})
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if created.ID == "" {
		t.Error("created collection has no id")
	}
	if created.Type != CollectionTypeManual {
		t.Errorf("Type = %s, want manual", created.Type)
	}
	if !reflect.DeepEqual(created.ClipIDs, []string{"a", "c"}) {
		t.Errorf("ClipIDs = %v, want deduped [a c]", created.ClipIDs)
	}
	if remote.callCount() != 1 {
		t.Errorf("remote calls = %d, want 1", remote.callCount())
	}

	got, ok := store.Collection("p1", created.ID)
	if !ok {
		t.Fatal("created collection not in store")
	}
	if got.Title != "My picks" {
		t.Errorf("Title = %s, want My picks", got.Title)
	}
}

func TestStore_CreateCollection_RollsBackOnRejection(t *testing.T) {
	store, remote := newTestStore(t)
	remote.err = errors.New("quota exceeded")

	created, err := store.CreateCollection(context.Background(), "p1", &Collection{Title: "Doomed"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if created != nil {
		t.Errorf("rejected create returned a collection: %+v", created)
	}

	p, _ := store.Project("p1")
	if len(p.Collections) != 1 {
		t.Errorf("rejected create left %d collections, want 1", len(p.Collections))
	}
}

func TestStore_CreateCollection_ProjectNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateCollection(context.Background(), "missing", &Collection{Title: "x"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nf.Kind != "project" {
		t.Errorf("NotFoundError.Kind = %s, want project", nf.Kind)
	}
}

func TestStore_DeleteCollection(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.DeleteCollection(context.Background(), "p1", "col1"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if _, ok := store.Collection("p1", "col1"); ok {
		t.Error("collection still present after delete")
	}
}

func TestStore_DeleteCollection_RestoresPositionOnRejection(t *testing.T) {
	store, remote := newTestStore(t)

	p, _ := store.Project("p1")
	p.Collections = append([]*Collection{
		{ID: "col0", Title: "First", ClipIDs: []string{"a"}, Type: CollectionTypeManual},
	}, p.Collections...)
	p.Collections = append(p.Collections, &Collection{
		ID: "col2", Title: "Last", ClipIDs: []string{"b"}, Type: CollectionTypeManual,
	})
	store.UpdateProject(p)

	remote.err = errors.New("forbidden")
	err := store.DeleteCollection(context.Background(), "p1", "col1")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}

	got, _ := store.Project("p1")
	var order []string
	for _, c := range got.Collections {
		order = append(order, c.ID)
	}
	if !reflect.DeepEqual(order, []string{"col0", "col1", "col2"}) {
		t.Errorf("collection order after rollback = %v, want [col0 col1 col2]", order)
	}
	restored := got.Collection("col1")
	if restored.Title != "Best Moments" || !reflect.DeepEqual(restored.ClipIDs, []string{"a", "b", "c"}) {
		t.Errorf("collection not restored bit for bit: %+v", restored)
	}
}

func TestStore_RenameClip(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.RenameClip(context.Background(), "p1", "b", "The comeback"); err != nil {
		t.Fatalf("RenameClip() error = %v", err)
	}
	p, _ := store.Project("p1")
	if p.Clip("b").Title != "The comeback" {
		t.Errorf("clip title = %s, want The comeback", p.Clip("b").Title)
	}
	if remote.callCount() != 1 {
		t.Errorf("remote calls = %d, want 1", remote.callCount())
	}
}

func TestStore_RenameClip_NoOp(t *testing.T) {
	store, remote := newTestStore(t)

	if err := store.RenameClip(context.Background(), "p1", "b", "Comeback"); err != nil {
		t.Fatalf("RenameClip() error = %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("no-op rename issued %d remote calls", remote.callCount())
	}
}

func TestStore_RenameClip_RollsBackOnRejection(t *testing.T) {
	store, remote := newTestStore(t)
	p, _ := store.Project("p1")
	store.SetCurrentProject(p)

	remote.err = errors.New("rejected")
	err := store.RenameClip(context.Background(), "p1", "b", "Doomed title")
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}

	cur, _ := store.CurrentProject()
	if cur.Clip("b").Title != "Comeback" {
		t.Errorf("current view clip title = %s, want Comeback", cur.Clip("b").Title)
	}
	flat := store.Projects()[0]
	if flat.Clip("b").Title != "Comeback" {
		t.Errorf("flat view clip title = %s, want Comeback", flat.Clip("b").Title)
	}
}

func TestStore_Mutation_AppliesToBothViews(t *testing.T) {
	store, _ := newTestStore(t)
	p, _ := store.Project("p1")
	store.SetCurrentProject(p)

	if err := store.RenameCollection(context.Background(), "p1", "col1", "Synced"); err != nil {
		t.Fatalf("RenameCollection() error = %v", err)
	}

	cur, _ := store.CurrentProject()
	if cur.Collection("col1").Title != "Synced" {
		t.Errorf("current view title = %s", cur.Collection("col1").Title)
	}
	flat := store.Projects()[0]
	if flat.Collection("col1").Title != "Synced" {
		t.Errorf("flat view title = %s", flat.Collection("col1").Title)
	}
}
