package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/surfshell/internal/store"
)

// BookmarkHandler handles HTTP requests for bookmark resources.
type BookmarkHandler struct {
	store *store.Store
}

// NewBookmarkHandler creates a new BookmarkHandler with the given store.
func NewBookmarkHandler(s *store.Store) *BookmarkHandler {
	return &BookmarkHandler{store: s}
}

// createBookmarkRequest is the body of POST /api/bookmarks.
type createBookmarkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
// Expected paths: /api/bookmarks or /api/bookmarks/{id}
func (h *BookmarkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bookmarks")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	h.delete(w, r, path)
}

func (h *BookmarkHandler) list(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.store.Bookmarks().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookmarks")
		return
	}
	if bookmarks == nil {
		bookmarks = []*store.Bookmark{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookmarks": bookmarks})
}

func (h *BookmarkHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	b := &store.Bookmark{URL: strings.TrimSpace(req.URL), Title: req.Title}
	err := h.store.Bookmarks().Add(r.Context(), b)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "already bookmarked")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add bookmark")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookmarkHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Bookmarks().Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bookmark not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete bookmark")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
