package library

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/autoclip/autoclip-agent/internal/progress"
)

// Lister is the read-only backend surface the refresher pulls from.
type Lister interface {
	ListProjects(ctx context.Context) ([]*Project, error)
	Project(ctx context.Context, id string) (*Project, error)
	ListClips(ctx context.Context, projectID string) ([]*Clip, error)
	ListCollections(ctx context.Context, projectID string) ([]*Collection, error)
}

// PollerControl is the slice of the progress poller the refresher manages.
type PollerControl interface {
	Start(ctx context.Context, projectIDs []string, interval time.Duration)
	Stop()
	Record(projectID string) (progress.Snapshot, bool)
}

// Persister receives hydrated projects for write-behind caching. Errors are
// logged and ignored; persistence is best effort and never blocks state.
type Persister interface {
	SaveProject(ctx context.Context, p *Project) error
}

// Refresher keeps the store loosely synchronized with the backend: it
// periodically replaces the flat project list (the bulk path the drag lease
// gates), keeps the progress poller subscribed to every project still being
// processed, and hydrates clips and collections exactly once when a project
// completes.
type Refresher struct {
	store     *Store
	backend   Lister
	poller    PollerControl
	persister Persister
	logger    *slog.Logger

	interval     time.Duration
	pollInterval time.Duration

	running  atomic.Bool
	hydrated map[string]bool
	pollSet  string
}

// NewRefresher wires a refresher; persister may be nil.
func NewRefresher(store *Store, backend Lister, poller PollerControl, persister Persister,
	interval, pollInterval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		store:        store,
		backend:      backend,
		poller:       poller,
		persister:    persister,
		logger:       logger,
		interval:     interval,
		pollInterval: pollInterval,
		hydrated:     make(map[string]bool),
	}
}

// Start runs the refresh loop until ctx is cancelled. One immediate pass,
// then one per interval.
func (r *Refresher) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}
	defer r.running.Store(false)

	r.logger.Info("refresher started", "interval_ms", r.interval.Milliseconds())

	r.refreshOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping")
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

// IsRunning reports whether the refresh loop is active.
func (r *Refresher) IsRunning() bool {
	return r.running.Load()
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	projects, err := r.backend.ListProjects(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("project list refresh failed", "error", err)
		}
	} else {
		// Keep clips/collections already hydrated locally; the list
		// endpoint returns projects without them.
		for _, p := range projects {
			if local, ok := r.store.Project(p.ID); ok {
				if len(p.Clips) == 0 {
					p.Clips = local.Clips
				}
				if len(p.Collections) == 0 {
					p.Collections = local.Collections
				}
			}
		}
		if !r.store.ReplaceProjects(projects) {
			r.logger.Debug("project list refresh dropped, drag in progress")
		}
	}

	r.hydrateCompleted(ctx)
	r.updatePollSet(ctx)
}

// hydrateCompleted fetches clips and collections once for every project
// whose pipeline has finished.
func (r *Refresher) hydrateCompleted(ctx context.Context) {
	for _, p := range r.store.Projects() {
		if r.hydrated[p.ID] {
			continue
		}
		if !r.projectDone(p) {
			continue
		}
		if err := r.hydrate(ctx, p.ID); err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("project hydration failed", "project_id", p.ID, "error", err)
			}
			continue
		}
		r.hydrated[p.ID] = true
	}
}

func (r *Refresher) projectDone(p *Project) bool {
	if p.Status == ProjectStatusCompleted {
		return true
	}
	if snap, ok := r.poller.Record(p.ID); ok {
		return snap.Stage.Terminal()
	}
	return false
}

func (r *Refresher) hydrate(ctx context.Context, projectID string) error {
	project, err := r.backend.Project(ctx, projectID)
	if err != nil {
		return err
	}
	clips, err := r.backend.ListClips(ctx, projectID)
	if err != nil {
		return err
	}
	collections, err := r.backend.ListCollections(ctx, projectID)
	if err != nil {
		return err
	}

	project.Clips = clips
	project.Collections = collections
	r.store.UpdateProject(project)

	r.logger.Info("project hydrated",
		"project_id", projectID, "clip_count", len(clips), "collection_count", len(collections))

	if r.persister != nil {
		if err := r.persister.SaveProject(ctx, project); err != nil {
			r.logger.Warn("snapshot persist failed", "project_id", projectID, "error", err)
		}
	}
	return nil
}

// updatePollSet restarts the poller when the set of still-processing
// projects changes, and leaves it alone otherwise.
func (r *Refresher) updatePollSet(ctx context.Context) {
	var ids []string
	for _, p := range r.store.Projects() {
		switch p.Status {
		case ProjectStatusPending, ProjectStatusProcessing:
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	key := strings.Join(ids, ",")
	if key == r.pollSet {
		return
	}
	r.pollSet = key

	if len(ids) == 0 {
		r.poller.Stop()
		return
	}
	r.poller.Start(ctx, ids, r.pollInterval)
}
