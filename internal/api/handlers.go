package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/sse"
	"github.com/starford/othala/internal/tree"
	"github.com/starford/othala/internal/uploads"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *tree.Service
	blobs  *uploads.Store
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil when event streaming
// is disabled.
func NewHandler(svc *tree.Service, blobs *uploads.Store, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, blobs: blobs, broker: broker}
}

func (h *Handler) publish(kind, nodeID string) {
	if h.broker != nil {
		h.broker.PublishNodeEvent(kind, nodeID)
	}
}

// wildcardPath extracts the raw tree path from a /browse/* route. Segments
// stay percent-encoded; the resolver decodes them.
func wildcardPath(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

// Browse handles GET /browse/*: resolves a slash path leniently and
// returns the node, its children, and breadcrumbs in one response.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := h.svc.Resolve(ctx, wildcardPath(r), tree.ResolveBrowse)
	if err != nil {
		writeError(w, "browse resolve", err)
		return
	}
	node, err := h.svc.GetNode(ctx, id)
	if err != nil {
		writeError(w, "browse get", err)
		return
	}
	children := []graph.Node{}
	if node.IsFolder {
		children, err = h.svc.ListChildren(ctx, id)
		if err != nil {
			writeError(w, "browse children", err)
			return
		}
	}
	crumbs, err := h.svc.PathOf(ctx, id)
	if err != nil {
		writeError(w, "browse crumbs", err)
		return
	}
	writeJSON(w, http.StatusOK, BrowseResponse{Node: node, Children: children, Crumbs: crumbs})
}

// GetNode handles GET /nodes/{id}.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.GetNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get node", err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// ListChildren handles GET /nodes/{id}/children.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.svc.ListChildren(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list children", err)
		return
	}
	writeJSON(w, http.StatusOK, ChildrenResponse{Children: children})
}

// CreateNode handles POST /nodes.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ParentID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("parent_id and name are required"))
		return
	}
	node, err := h.svc.CreateNode(r.Context(), req.ParentID, req.Name, req.IsFolder, req.IsAttached)
	if err != nil {
		writeError(w, "create node", err)
		return
	}
	h.publish("created", node.ID)
	writeJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PUT /nodes/{id}: renames and/or replaces content,
// depending on which fields are present.
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == nil && req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to update"))
		return
	}

	ctx := r.Context()
	if req.Name != nil {
		if err := h.svc.Rename(ctx, id, *req.Name); err != nil {
			writeError(w, "rename node", err)
			return
		}
	}
	if req.Content != nil {
		if err := h.svc.UpdateContent(ctx, id, *req.Content, req.Format); err != nil {
			writeError(w, "update content", err)
			return
		}
	}

	node, err := h.svc.GetNode(ctx, id)
	if err != nil {
		writeError(w, "get node", err)
		return
	}
	h.publish("updated", id)
	writeJSON(w, http.StatusOK, node)
}

// MoveNode handles POST /nodes/{id}/move.
func (h *Handler) MoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.TargetID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("target_id is required"))
		return
	}
	if err := h.svc.MoveNode(r.Context(), id, req.TargetID); err != nil {
		writeError(w, "move node", err)
		return
	}
	h.publish("moved", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

// DeleteNode handles DELETE /nodes/{id}. Deleting an id that no longer
// exists still returns 204.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNode(r.Context(), id); err != nil {
		writeError(w, "delete node", err)
		return
	}
	h.publish("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /search?q=...&start_id=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, r.URL.Query().Get("start_id"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Context handles GET /context/{id}?exclude=id1,id2.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	var excluded []string
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		excluded = strings.Split(raw, ",")
	}
	doc, err := h.svc.BuildContext(r.Context(), chi.URLParam(r, "id"), excluded)
	if err != nil {
		writeError(w, "build context", err)
		return
	}
	writeJSON(w, http.StatusOK, ContextResponse{Context: doc})
}

// ContextTree handles GET /context/tree/{id}.
func (h *Handler) ContextTree(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.ContextTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "context tree", err)
		return
	}
	writeJSON(w, http.StatusOK, ContextTreeResponse{Folders: folders})
}

// FolderTree handles GET /folders/tree.
func (h *Handler) FolderTree(w http.ResponseWriter, r *http.Request) {
	root, err := h.svc.FolderTree(r.Context())
	if err != nil {
		writeError(w, "folder tree", err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}
