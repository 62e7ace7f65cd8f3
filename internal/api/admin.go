package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/starford/othala/internal/tree"
)

// Syncer runs upstream imports on demand. Implemented by the sync package;
// nil when no upstream is configured.
type Syncer interface {
	SyncCompanies(ctx context.Context) (int, error)
	SyncTickets(ctx context.Context) (int, error)
	Status(ctx context.Context) (map[string]int, error)
}

// AdminHandler holds the destructive/operational endpoints, mounted behind
// AdminMiddleware.
type AdminHandler struct {
	svc    *tree.Service
	syncer Syncer
}

// NewAdminHandler creates the admin surface. syncer may be nil.
func NewAdminHandler(svc *tree.Service, syncer Syncer) *AdminHandler {
	return &AdminHandler{svc: svc, syncer: syncer}
}

// Export handles GET /admin/export: dumps every non-read-only node.
func (a *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := a.svc.Export(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportRequest{Records: records})
}

// Import handles POST /admin/import: replays a dump into the live tree.
func (a *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 100<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := a.svc.Import(r.Context(), req.Records); err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(req.Records)})
}

// Wipe handles POST /admin/wipe: clears the tree and re-creates the root.
func (a *AdminHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Store().Wipe(r.Context()); err != nil {
		writeError(w, "wipe", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "wiped"})
}

// SyncCompanies handles POST /admin/sync/companies.
func (a *AdminHandler) SyncCompanies(w http.ResponseWriter, r *http.Request) {
	if a.syncer == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sync is not configured"))
		return
	}
	n, err := a.syncer.SyncCompanies(r.Context())
	if err != nil {
		writeError(w, "sync companies", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}

// SyncTickets handles POST /admin/sync/tickets.
func (a *AdminHandler) SyncTickets(w http.ResponseWriter, r *http.Request) {
	if a.syncer == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sync is not configured"))
		return
	}
	n, err := a.syncer.SyncTickets(r.Context())
	if err != nil {
		writeError(w, "sync tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}

// SyncStatus handles GET /admin/sync/status.
func (a *AdminHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if a.syncer == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sync is not configured"))
		return
	}
	counts, err := a.syncer.Status(r.Context())
	if err != nil {
		writeError(w, "sync status", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
