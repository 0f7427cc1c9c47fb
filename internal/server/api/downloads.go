package api

import (
	"net/http"

	"github.com/ayusman/surfshell/internal/store"
)

// DownloadHandler lists saved downloads.
type DownloadHandler struct {
	store *store.Store
}

// NewDownloadHandler creates a DownloadHandler with the given store.
func NewDownloadHandler(s *store.Store) *DownloadHandler {
	return &DownloadHandler{store: s}
}

// ServeHTTP handles GET /api/downloads.
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	downloads, err := h.store.Downloads().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list downloads")
		return
	}
	if downloads == nil {
		downloads = []*store.Download{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"downloads": downloads})
}
