package api

import "github.com/autoclip/autoclip-agent/internal/progress"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State         string `json:"state"`
	ProjectsCount int    `json:"projects_count"`
	Polling       bool   `json:"polling"`
	DragActive    bool   `json:"drag_active"`
	EditRev       int64  `json:"edit_rev"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type CreateCollectionRequest struct {
	Title   string   `json:"collection_title"`
	Summary string   `json:"collection_summary,omitempty"`
	ClipIDs []string `json:"clip_ids,omitempty"`
}

type UpdateCollectionRequest struct {
	Title   *string `json:"collection_title,omitempty"`
	Summary *string `json:"collection_summary,omitempty"`
}

type ReorderRequest struct {
	ClipIDs []string `json:"clip_ids"`
}

type AddClipsRequest struct {
	ClipIDs []string `json:"clip_ids"`
}

type RenameClipRequest struct {
	Title string `json:"title"`
}

type DragLeaseResponse struct {
	LeaseID string `json:"lease_id"`
}

type ProgressResponse struct {
	Snapshots map[string]progress.Snapshot `json:"snapshots"`
}
