package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/graph"
	"github.com/starford/othala/internal/uploads"
)

const maxUploadBytes = uploads.MaxBlobBytes

// UploadFile handles POST /nodes/{id}/files (multipart/form-data, field
// "file"): stores the blob and records the HAS_FILE association.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	id, storedName, err := h.blobs.Save(file, header.Filename)
	if err != nil {
		writeError(w, "save blob", err)
		return
	}

	meta := &graph.File{
		ID:               id,
		Filename:         storedName,
		OriginalFilename: uploads.SanitizeFilename(header.Filename),
	}
	if err := h.svc.RegisterFile(r.Context(), nodeID, meta); err != nil {
		// The graph refused the association; do not leave an orphan blob.
		_ = h.blobs.Remove(storedName)
		writeError(w, "register file", err)
		return
	}

	h.publish("updated", nodeID)
	writeJSON(w, http.StatusCreated, FileUploadResponse{
		ID:       id,
		Filename: storedName,
		URL:      "/files/" + storedName,
	})
}

// ServeFile handles GET /files/{filename}.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.blobs.Path(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, "serve file", err)
		return
	}
	http.ServeFile(w, r, abs)
}
