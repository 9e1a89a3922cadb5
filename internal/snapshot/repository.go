// Package snapshot persists the last hydrated projects to the local sqlite
// database. It is a write-behind cache: saves happen after a project has
// been hydrated from the backend, loads happen once at startup to seed the
// in-memory store. Optimistic mutations and their rollbacks never touch it.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autoclip/autoclip-agent/internal/library"
)

type Repository interface {
	SaveProject(ctx context.Context, p *library.Project) error
	LoadProjects(ctx context.Context) ([]*library.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveProject replaces the stored copy of the project and everything it
// owns in one transaction.
func (r *SQLiteRepository) SaveProject(ctx context.Context, p *library.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, status, current_step, total_steps, created_at, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			current_step = excluded.current_step,
			total_steps = excluded.total_steps,
			saved_at = excluded.saved_at
	`, p.ID, p.Name, p.Status, p.CurrentStep, p.TotalSteps,
		p.CreatedAt.Format(time.RFC3339), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM clips WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("clear clips for %s: %w", p.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("clear collections for %s: %w", p.ID, err)
	}

	for i, c := range p.Clips {
		content, err := json.Marshal(c.Content)
		if err != nil {
			return fmt.Errorf("marshal clip content: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clips (id, project_id, start_time, end_time, score, title, generated_title, content, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, p.ID, c.StartTime, c.EndTime, c.Score, c.Title, c.GeneratedTitle, string(content), i)
		if err != nil {
			return fmt.Errorf("save clip %s: %w", c.ID, err)
		}
	}

	for i, c := range p.Collections {
		clipIDs, err := json.Marshal(c.ClipIDs)
		if err != nil {
			return fmt.Errorf("marshal clip ids: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO collections (id, project_id, title, summary, clip_ids, type, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, p.ID, c.Title, c.Summary, string(clipIDs), c.Type, i)
		if err != nil {
			return fmt.Errorf("save collection %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadProjects returns every cached project with its clips and collections,
// most recently created first.
func (r *SQLiteRepository) LoadProjects(ctx context.Context) ([]*library.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, current_step, total_steps, created_at
		FROM projects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	defer rows.Close()

	var projects []*library.Project
	for rows.Next() {
		var p library.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CurrentStep, &p.TotalSteps, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range projects {
		if p.Clips, err = r.loadClips(ctx, p.ID); err != nil {
			return nil, err
		}
		if p.Collections, err = r.loadCollections(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// DeleteProject drops a cached project; clips and collections cascade.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) loadClips(ctx context.Context, projectID string) ([]*library.Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_time, end_time, score, title, generated_title, content
		FROM clips WHERE project_id = ? ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load clips for %s: %w", projectID, err)
	}
	defer rows.Close()

	var clips []*library.Clip
	for rows.Next() {
		var c library.Clip
		var content string
		if err := rows.Scan(&c.ID, &c.StartTime, &c.EndTime, &c.Score, &c.Title, &c.GeneratedTitle, &content); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
			return nil, fmt.Errorf("unmarshal clip content: %w", err)
		}
		clips = append(clips, &c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) loadCollections(ctx context.Context, projectID string) ([]*library.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, summary, clip_ids, type
		FROM collections WHERE project_id = ? ORDER BY position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load collections for %s: %w", projectID, err)
	}
	defer rows.Close()

	var collections []*library.Collection
	for rows.Next() {
		var c library.Collection
		var clipIDs string
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &clipIDs, &c.Type); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		if err := json.Unmarshal([]byte(clipIDs), &c.ClipIDs); err != nil {
			return nil, fmt.Errorf("unmarshal clip ids: %w", err)
		}
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}
