package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/sse"
	"github.com/starford/othala/internal/tree"
	"github.com/starford/othala/internal/uploads"
)

// RouterConfig carries everything the API router needs.
type RouterConfig struct {
	Service *tree.Service
	Blobs   *uploads.Store
	Broker  *sse.Broker // nil disables /events
	Syncer  Syncer      // nil disables the sync endpoints

	AuthEnabled bool
	Token       string
	AdminToken  string
}

// NewRouter creates a chi router with all API routes mounted. The main
// surface sits behind Bearer auth (when enabled); the admin surface always
// requires its own token.
func NewRouter(cfg RouterConfig) chi.Router {
	h := NewHandler(cfg.Service, cfg.Blobs, cfg.Broker)
	admin := NewAdminHandler(cfg.Service, cfg.Syncer)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Tree browsing and search.
	r.Get("/browse", h.Browse)
	r.Get("/browse/*", h.Browse)
	r.Get("/search", h.Search)
	r.Get("/folders/tree", h.FolderTree)

	// Node CRUD.
	r.Post("/nodes", h.CreateNode)
	r.Get("/nodes/{id}", h.GetNode)
	r.Put("/nodes/{id}", h.UpdateNode)
	r.Delete("/nodes/{id}", h.DeleteNode)
	r.Get("/nodes/{id}/children", h.ListChildren)
	r.Post("/nodes/{id}/move", h.MoveNode)

	// Attachments.
	r.Post("/nodes/{id}/files", h.UploadFile)
	r.Get("/files/{filename}", h.ServeFile)

	// Context aggregation.
	r.Get("/context/{id}", h.Context)
	r.Get("/context/tree/{id}", h.ContextTree)

	// SSE endpoint (protected by the same auth middleware).
	if cfg.Broker != nil {
		r.Get("/events", cfg.Broker.ServeHTTP)
	}

	// Admin surface behind its own token.
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(AdminMiddleware(cfg.AdminToken))
		ar.Get("/export", admin.Export)
		ar.Post("/import", admin.Import)
		ar.Post("/wipe", admin.Wipe)
		ar.Post("/sync/companies", admin.SyncCompanies)
		ar.Post("/sync/tickets", admin.SyncTickets)
		ar.Get("/sync/status", admin.SyncStatus)
	})

	return r
}
