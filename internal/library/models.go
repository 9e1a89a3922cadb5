// Package library holds the client-side entity state for the highlight
// extraction service: projects, their clips, and clip collections. The Store
// applies user mutations optimistically and rolls them back when the backend
// rejects them.
package library

import "time"

// Project lifecycle status values as reported by the processing service.
const (
	ProjectStatusPending    = "pending"
	ProjectStatusProcessing = "processing"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

// Collection type tags.
const (
	CollectionTypeAIRecommended = "ai_recommended"
	CollectionTypeManual        = "manual"
)

// Project is one source video and its derived artifacts. It owns its clips
// and collections; collections reference clips by id only.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      string        `json:"status"`
	CurrentStep int           `json:"current_step"`
	TotalSteps  int           `json:"total_steps"`
	Clips       []*Clip       `json:"clips,omitempty"`
	Collections []*Collection `json:"collections,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Clip is a scored, time-bounded highlight extracted from a project's source
// video. Start and end are timestamp strings in the form HH:MM:SS,mmm.
type Clip struct {
	ID             string   `json:"id"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Score          float64  `json:"score"`
	Title          string   `json:"title"`
	GeneratedTitle string   `json:"generated_title"`
	Content        []string `json:"content,omitempty"`
}

// Collection is an ordered playlist of clip references within a project.
// Clip id order is significant (playback and export order) and ids never
// repeat. LocalRev is the local edit revision stamped by the Store; it is
// never sent to the backend.
type Collection struct {
	ID       string   `json:"id"`
	Title    string   `json:"collection_title"`
	Summary  string   `json:"collection_summary"`
	ClipIDs  []string `json:"clip_ids"`
	Type     string   `json:"collection_type"`
	LocalRev int64    `json:"-"`
}

// CollectionPatch carries the mutable collection fields for a backend update.
// Nil pointer fields are omitted from the request.
type CollectionPatch struct {
	Title   *string  `json:"collection_title,omitempty"`
	Summary *string  `json:"collection_summary,omitempty"`
	ClipIDs []string `json:"clip_ids,omitempty"`
}

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	out := *c
	if c.Content != nil {
		out.Content = append([]string(nil), c.Content...)
	}
	return &out
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := *c
	if c.ClipIDs != nil {
		out.ClipIDs = append([]string(nil), c.ClipIDs...)
	}
	return &out
}

// Equal reports whether the user-visible state of two collections matches:
// same title, summary, type, and clip ids in the same order. LocalRev is
// excluded so a no-op mutation compares equal to the current value.
func (c *Collection) Equal(o *Collection) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.ID != o.ID || c.Title != o.Title || c.Summary != o.Summary || c.Type != o.Type {
		return false
	}
	if len(c.ClipIDs) != len(o.ClipIDs) {
		return false
	}
	for i, id := range c.ClipIDs {
		if o.ClipIDs[i] != id {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the project including clips and collections.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	if p.Clips != nil {
		out.Clips = make([]*Clip, len(p.Clips))
		for i, c := range p.Clips {
			out.Clips[i] = c.Clone()
		}
	}
	if p.Collections != nil {
		out.Collections = make([]*Collection, len(p.Collections))
		for i, c := range p.Collections {
			out.Collections[i] = c.Clone()
		}
	}
	return &out
}

// Collection returns the project's collection with the given id, or nil.
func (p *Project) Collection(id string) *Collection {
	for _, c := range p.Collections {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Clip returns the project's clip with the given id, or nil.
func (p *Project) Clip(id string) *Clip {
	for _, c := range p.Clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}
