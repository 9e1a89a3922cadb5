package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/autoclip/autoclip-agent/internal/config"
	"github.com/autoclip/autoclip-agent/internal/export"
	"github.com/autoclip/autoclip-agent/internal/library"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/progress", progressHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Get("/projects/{id}/progress", projectProgressHandler(cfg))

		r.Post("/projects/{id}/collections", createCollectionHandler(cfg))
		r.Patch("/projects/{id}/collections/{cid}", updateCollectionHandler(cfg))
		r.Delete("/projects/{id}/collections/{cid}", deleteCollectionHandler(cfg))
		r.Put("/projects/{id}/collections/{cid}/order", reorderHandler(cfg))
		r.Post("/projects/{id}/collections/{cid}/clips", addClipsHandler(cfg))
		r.Delete("/projects/{id}/collections/{cid}/clips/{clipID}", removeClipHandler(cfg))
		r.Get("/projects/{id}/collections/{cid}/export.edl", exportEDLHandler(cfg))
		r.Patch("/projects/{id}/clips/{clipID}", renameClipHandler(cfg))

		r.Post("/drag", beginDragHandler(cfg))
		r.Delete("/drag/{leaseID}", endDragHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects := cfg.Store.Projects()

		state := "idle"
		for _, p := range projects {
			if p.Status == library.ProjectStatusPending || p.Status == library.ProjectStatusProcessing {
				state = "processing"
				break
			}
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:         state,
			ProjectsCount: len(projects),
			Polling:       cfg.Poller.Active(),
			DragActive:    cfg.Store.DragActive(),
			EditRev:       cfg.Store.EditRev(),
		})
	}
}

func progressHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ProgressResponse{Snapshots: cfg.Poller.Records()})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"projects": cfg.Store.Projects()})
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		project, ok := cfg.Store.Project(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, project)
	}
}

func projectProgressHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		snap, ok := cfg.Poller.Record(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "no progress recorded for project", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

func createCollectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req CreateCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Title == "" {
			WriteError(w, http.StatusBadRequest, "collection_title is required", "BAD_REQUEST")
			return
		}

		created, err := cfg.Store.CreateCollection(r.Context(), projectID, &library.Collection{
			Title:   req.Title,
			Summary: req.Summary,
			ClipIDs: req.ClipIDs,
		})
		if err != nil {
			writeMutationError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	}
}

func updateCollectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")

		var req UpdateCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Title == nil && req.Summary == nil {
			WriteError(w, http.StatusBadRequest, "nothing to update", "BAD_REQUEST")
			return
		}

		if req.Title != nil {
			if err := cfg.Store.RenameCollection(r.Context(), projectID, collectionID, *req.Title); err != nil {
				writeMutationError(w, err)
				return
			}
		}
		if req.Summary != nil {
			if err := cfg.Store.UpdateCollectionSummary(r.Context(), projectID, collectionID, *req.Summary); err != nil {
				writeMutationError(w, err)
				return
			}
		}

		collection, _ := cfg.Store.Collection(projectID, collectionID)
		WriteJSON(w, http.StatusOK, collection)
	}
}

func deleteCollectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")

		if err := cfg.Store.DeleteCollection(r.Context(), projectID, collectionID); err != nil {
			writeMutationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func reorderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")

		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Store.ReorderCollectionClips(r.Context(), projectID, collectionID, req.ClipIDs); err != nil {
			writeMutationError(w, err)
			return
		}

		collection, _ := cfg.Store.Collection(projectID, collectionID)
		WriteJSON(w, http.StatusOK, collection)
	}
}

func addClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")

		var req AddClipsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if len(req.ClipIDs) == 0 {
			WriteError(w, http.StatusBadRequest, "clip_ids is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Store.AddClipsToCollection(r.Context(), projectID, collectionID, req.ClipIDs); err != nil {
			writeMutationError(w, err)
			return
		}

		collection, _ := cfg.Store.Collection(projectID, collectionID)
		WriteJSON(w, http.StatusOK, collection)
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")
		clipID := chi.URLParam(r, "clipID")

		if err := cfg.Store.RemoveClipFromCollection(r.Context(), projectID, collectionID, clipID); err != nil {
			writeMutationError(w, err)
			return
		}

		collection, _ := cfg.Store.Collection(projectID, collectionID)
		WriteJSON(w, http.StatusOK, collection)
	}
}

func renameClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		clipID := chi.URLParam(r, "clipID")

		var req RenameClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Store.RenameClip(r.Context(), projectID, clipID, req.Title); err != nil {
			writeMutationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		collectionID := chi.URLParam(r, "cid")

		project, ok := cfg.Store.Project(projectID)
		if !ok {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		collection := project.Collection(collectionID)
		if collection == nil {
			WriteError(w, http.StatusNotFound, "collection not found", "NOT_FOUND")
			return
		}

		fps := config.DefaultExportFrameRate
		if v := r.URL.Query().Get("fps"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "invalid fps", "BAD_REQUEST")
				return
			}
			fps = parsed
		}

		edl, unresolved, err := export.CollectionEDL(project, collection, fps)
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EXPORT_FAILED")
			return
		}
		if len(unresolved) > 0 {
			cfg.Logger.Warn("export skipped dangling clip ids",
				"collection_id", collectionID, "unresolved", len(unresolved))
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func beginDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lease := cfg.Store.BeginDrag()
		WriteJSON(w, http.StatusCreated, DragLeaseResponse{LeaseID: lease.ID()})
	}
}

func endDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Store.EndDrag(chi.URLParam(r, "leaseID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeMutationError maps store errors onto HTTP statuses. A RemoteError
// means the optimistic change was already rolled back; the client re-renders
// from the restored state.
func writeMutationError(w http.ResponseWriter, err error) {
	var notFound *library.NotFoundError
	var remote *library.RemoteError
	switch {
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, notFound.Error(), "NOT_FOUND")
	case errors.Is(err, library.ErrMutationInFlight):
		WriteError(w, http.StatusConflict, err.Error(), "MUTATION_IN_FLIGHT")
	case errors.Is(err, library.ErrOrderMismatch):
		WriteError(w, http.StatusBadRequest, err.Error(), "ORDER_MISMATCH")
	case errors.As(err, &remote):
		WriteError(w, http.StatusBadGateway, remote.Error(), "REMOTE_REJECTED")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
