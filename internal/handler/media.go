package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/msomdec/design-catalog/internal/domain"
)

// MediaHandler serves stored blobs. Blob paths embed a random id so the
// bytes at a path never change.
type MediaHandler struct {
	blobs domain.BlobStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(blobs domain.BlobStore) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// HandleServe serves blob bytes with a Content-Type derived from the
// extension, or sniffed when the extension is unknown.
// GET /media/{path...}
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	p := r.PathValue("path")
	if p == "" || strings.Contains(p, "..") || path.Clean("/"+p) != "/"+p {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	data, err := h.blobs.Get(r.Context(), p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		slog.Error("get blob", "path", p, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
