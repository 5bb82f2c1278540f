package handler

import (
	"log/slog"
	"net/http"

	"github.com/cradlehq/cradle/internal/store"
)

type ContentHandler struct {
	content *store.ContentStore
	logger  *slog.Logger
}

func NewContentHandler(cs *store.ContentStore, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: cs, logger: logger}
}

// List handles GET /api/content
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.content.List()
	if err != nil {
		h.logger.Error("list content", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	writeList(w, pages)
}

// Get handles GET /api/content/{slug}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	page, err := h.content.GetBySlug(slug)
	if err != nil {
		h.logger.Error("get content", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get page")
		return
	}
	if page == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
