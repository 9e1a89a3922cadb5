package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/autoclip/autoclip-agent/internal/library"
)

type clipTitlePatch struct {
	Title string `json:"title"`
}

// UpdateCollection patches a collection's title, summary, or clip order.
// Called by the mutation engine after the optimistic local write; a non-nil
// error makes the engine roll that write back.
func (c *Client) UpdateCollection(ctx context.Context, projectID, collectionID string, patch library.CollectionPatch) error {
	path := "/api/projects/" + projectID + "/collections/" + collectionID
	if err := c.doJSON(ctx, http.MethodPatch, path, patch, nil); err != nil {
		return fmt.Errorf("update collection %s: %w", collectionID, err)
	}
	return nil
}

// CreateCollection registers a collection whose id the client pre-assigned.
func (c *Client) CreateCollection(ctx context.Context, projectID string, collection *library.Collection) error {
	path := "/api/projects/" + projectID + "/collections"
	if err := c.doJSON(ctx, http.MethodPost, path, collection, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", collection.ID, err)
	}
	return nil
}

// DeleteCollection removes a collection.
func (c *Client) DeleteCollection(ctx context.Context, projectID, collectionID string) error {
	path := "/api/projects/" + projectID + "/collections/" + collectionID
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", collectionID, err)
	}
	return nil
}

// UpdateClipTitle sets a clip's user-editable title.
func (c *Client) UpdateClipTitle(ctx context.Context, projectID, clipID, title string) error {
	path := "/api/projects/" + projectID + "/clips/" + clipID
	if err := c.doJSON(ctx, http.MethodPatch, path, clipTitlePatch{Title: title}, nil); err != nil {
		return fmt.Errorf("update clip %s: %w", clipID, err)
	}
	return nil
}
