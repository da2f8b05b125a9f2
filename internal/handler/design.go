package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/service"
)

// DesignHandler exposes the design catalog over JSON.
type DesignHandler struct {
	designs  *service.DesignService
	counters *service.CounterService
	media    mediaURLs
}

// NewDesignHandler creates a new DesignHandler. mediaBaseURL prefixes every
// blob path in responses.
func NewDesignHandler(designs *service.DesignService, counters *service.CounterService, mediaBaseURL string) *DesignHandler {
	return &DesignHandler{designs: designs, counters: counters, media: mediaURLs(mediaBaseURL)}
}

// HandleGet returns the full design tree.
// GET /designs/{kind}/{id}
func (h *DesignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}

	d, err := h.designs.Get(r.Context(), kind, id, AdminFromContext(r.Context()) != nil)
	if err != nil {
		writeServiceError(w, "get design", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"design": h.media.design(d)})
}

// HandleCreate saves a new design tree.
// POST /designs/{kind}
func (h *DesignHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := designKind(w, r)
	if !ok {
		return
	}

	draft, err := parseDraft(w, r)
	if err != nil {
		writeServiceError(w, "parse design", err)
		return
	}

	res, err := h.designs.Create(r.Context(), kind, draft)
	if err != nil {
		writeServiceError(w, "create design", err)
		return
	}
	h.writeSave(w, http.StatusCreated, res)
}

// HandleUpdate reconciles an existing design tree against the request.
// PUT /designs/{kind}/{id}
func (h *DesignHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}

	draft, err := parseDraft(w, r)
	if err != nil {
		writeServiceError(w, "parse design", err)
		return
	}

	res, err := h.designs.Update(r.Context(), kind, id, draft)
	if err != nil {
		writeServiceError(w, "update design", err)
		return
	}
	h.writeSave(w, http.StatusOK, res)
}

// HandleDelete removes a design with its floors, rooms and media.
// DELETE /designs/{kind}/{id}
func (h *DesignHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}

	if err := h.designs.Delete(r.Context(), kind, id); err != nil {
		writeServiceError(w, "delete design", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteImage removes one gallery image of the design or its floors.
// DELETE /designs/{kind}/{id}/images/{imageId}
func (h *DesignHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	if err := h.designs.DeleteImage(r.Context(), kind, id, imageID); err != nil {
		writeServiceError(w, "delete image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteFile removes one design file of the design or its floors.
// DELETE /designs/{kind}/{id}/files/{fileId}
func (h *DesignHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}
	fileID, ok := pathID(w, r, "fileId")
	if !ok {
		return
	}

	if err := h.designs.DeleteFile(r.Context(), kind, id, fileID); err != nil {
		writeServiceError(w, "delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleView records a view.
// POST /designs/{kind}/{id}/views
func (h *DesignHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}

	n, err := h.counters.View(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, "record view", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"views": n})
}

// HandleDownload records a download.
// POST /designs/{kind}/{id}/downloads
func (h *DesignHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := designPath(w, r)
	if !ok {
		return
	}

	n, err := h.counters.Download(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, "record download", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"downloads": n})
}

func (h *DesignHandler) writeSave(w http.ResponseWriter, status int, res *service.SaveResult) {
	if len(res.Orphans) > 0 {
		slog.Warn("save left orphaned blobs", "design_id", res.Design.ID, "count", len(res.Orphans))
	}
	writeJSON(w, status, map[string]any{
		"design":  h.media.design(res.Design),
		"skipped": toSkippedDTOs(res.Skipped),
	})
}

func designKind(w http.ResponseWriter, r *http.Request) (domain.DesignKind, bool) {
	kind, ok := domain.ParseDesignKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
	}
	return kind, ok
}

func designPath(w http.ResponseWriter, r *http.Request) (domain.DesignKind, int64, bool) {
	kind, ok := designKind(w, r)
	if !ok {
		return "", 0, false
	}
	id, ok := pathID(w, r, "id")
	return kind, id, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name+".")
		return 0, false
	}
	return id, true
}
