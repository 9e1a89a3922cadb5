package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autoclip/autoclip-agent/internal/library"
)

type projectsResponse struct {
	Projects []*library.Project `json:"projects"`
}

type clipsResponse struct {
	Clips []*library.Clip `json:"clips"`
}

type collectionsResponse struct {
	Collections []*library.Collection `json:"collections"`
}

// ListProjects fetches all projects visible to this client, without their
// clips and collections.
func (c *Client) ListProjects(ctx context.Context) ([]*library.Project, error) {
	var resp projectsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects", nil, &resp); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return resp.Projects, nil
}

// Project fetches one project by id, without its clips and collections.
func (c *Client) Project(ctx context.Context, id string) (*library.Project, error) {
	var resp library.Project
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &resp, nil
}

// ListClips fetches a project's clips.
func (c *Client) ListClips(ctx context.Context, projectID string) ([]*library.Clip, error) {
	var resp clipsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+projectID+"/clips", nil, &resp); err != nil {
		return nil, fmt.Errorf("list clips for %s: %w", projectID, err)
	}
	return resp.Clips, nil
}

// ListCollections fetches a project's collections.
func (c *Client) ListCollections(ctx context.Context, projectID string) ([]*library.Collection, error) {
	var resp collectionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/projects/"+projectID+"/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections for %s: %w", projectID, err)
	}
	return resp.Collections, nil
}
