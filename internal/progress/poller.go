package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is one poll response record for a project. Percent is local to
// the current stage (0-100 within that stage), not a global pipeline value;
// mapping to an overall percent is left to consumers.
type Snapshot struct {
	ProjectID string    `json:"project_id"`
	Stage     Stage     `json:"stage"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"ts"`
}

// Fetcher performs one batched progress fetch for a set of project ids.
type Fetcher interface {
	FetchProgress(ctx context.Context, projectIDs []string) ([]Snapshot, error)
}

// Poller periodically fetches progress snapshots for a set of subscribed
// project ids and folds every returned record into its per-project map,
// unconditionally overwriting the previous record. The poller applies no
// ordering or staleness filtering; a consumer that needs monotonic percent
// must guard on its own (see Record's Timestamp).
//
// At most one polling session is active; Start supersedes any running
// session. Fetch failures are logged and swallowed, the last known records
// persist, and polling continues on the next tick.
type Poller struct {
	fetcher Fetcher
	logger  *slog.Logger

	startMu sync.Mutex

	mu      sync.Mutex
	records map[string]Snapshot
	session *session
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller with an empty record map.
func NewPoller(fetcher Fetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher: fetcher,
		logger:  logger,
		records: make(map[string]Snapshot),
	}
}

// Start begins polling the given project ids: one immediate fetch, then one
// batched fetch every interval. Any previous session is stopped first, so
// exactly one timer exists at a time.
func (p *Poller) Start(ctx context.Context, projectIDs []string, interval time.Duration) {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	p.stop()

	ids := append([]string(nil), projectIDs...)
	runCtx, cancel := context.WithCancel(ctx)
	s := &session{cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	p.session = s
	p.mu.Unlock()

	p.logger.Info("progress polling started", "project_count", len(ids), "interval_ms", interval.Milliseconds())
	go p.run(runCtx, s, ids, interval)
}

// Stop cancels the active session and waits for its goroutine to exit.
// Safe to call when not polling.
func (p *Poller) Stop() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	p.stop()
}

func (p *Poller) stop() {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return
	}
	s.cancel()
	<-s.done
	p.logger.Info("progress polling stopped")
}

// Active reports whether a polling session is running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Record returns the latest snapshot for a project id.
func (p *Poller) Record(projectID string) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, ok := p.records[projectID]
	return snap, ok
}

// Records returns a copy of the whole record map.
func (p *Poller) Records() map[string]Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Snapshot, len(p.records))
	for id, snap := range p.records {
		out[id] = snap
	}
	return out
}

// Clear empties the record map. Stop does not clear it, so the last known
// progress stays visible after polling ends until the caller discards it.
func (p *Poller) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = make(map[string]Snapshot)
}

func (p *Poller) run(ctx context.Context, s *session, ids []string, interval time.Duration) {
	defer close(s.done)

	p.pollOnce(ctx, ids)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx, ids)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, ids []string) {
	snaps, err := p.fetcher.FetchProgress(ctx, ids)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("progress fetch failed", "project_count", len(ids), "error", err)
		return
	}

	p.mu.Lock()
	for _, snap := range snaps {
		if snap.ProjectID == "" {
			continue
		}
		p.records[snap.ProjectID] = snap
	}
	p.mu.Unlock()
}
