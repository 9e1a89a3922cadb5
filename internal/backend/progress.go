package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autoclip/autoclip-agent/internal/progress"
)

type progressBatchRequest struct {
	ProjectIDs []string `json:"project_ids"`
}

type progressBatchResponse struct {
	Snapshots []progress.Snapshot `json:"snapshots"`
}

// FetchProgress performs one batched snapshot fetch for the given project
// ids. One round-trip regardless of how many ids are subscribed.
func (c *Client) FetchProgress(ctx context.Context, projectIDs []string) ([]progress.Snapshot, error) {
	var resp progressBatchResponse
	req := progressBatchRequest{ProjectIDs: projectIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/api/progress/batch", req, &resp); err != nil {
		return nil, fmt.Errorf("fetch progress: %w", err)
	}
	return resp.Snapshots, nil
}
