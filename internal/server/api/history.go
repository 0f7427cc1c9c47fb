package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/surfshell/internal/store"
)

// HistoryHandler serves browsing history.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

// ServeHTTP handles /api/history.
//
//	GET    ?q=term      entries whose url or title contains term
//	GET    ?today=1     entries visited since local midnight
//	GET    ?limit=n     the n most recent entries
//	DELETE ?url=u       forget every visit to u
//	DELETE              clear all history
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history"), "/") != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	repo := h.store.History()
	q := r.URL.Query()

	var (
		entries []*store.HistoryEntry
		err     error
	)
	switch {
	case q.Get("q") != "":
		entries, err = repo.Search(r.Context(), q.Get("q"))
	case q.Get("today") == "1" || q.Get("today") == "true":
		entries, err = repo.Today(r.Context())
	default:
		entries, err = repo.List(r.Context(), queryInt(r, "limit", 0))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (h *HistoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	repo := h.store.History()

	var err error
	if u := r.URL.Query().Get("url"); u != "" {
		err = repo.DeleteURL(r.Context(), u)
	} else {
		err = repo.Clear(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
