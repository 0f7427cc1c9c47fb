package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/surfshell/internal/extension"
)

// ExtensionHandler exposes the extension registry.
type ExtensionHandler struct {
	manager *extension.Manager
}

// NewExtensionHandler creates an ExtensionHandler backed by m.
func NewExtensionHandler(m *extension.Manager) *ExtensionHandler {
	return &ExtensionHandler{manager: m}
}

type failureResponse struct {
	ID     string `json:"id"`
	Dir    string `json:"dir"`
	Reason string `json:"reason"`
}

// ServeHTTP routes:
//
//	GET  /api/extensions
//	GET  /api/extensions/failures
//	GET  /api/extensions/schema
//	POST /api/extensions/actions/{actionID}
//	GET  /api/extensions/{id}
//	POST /api/extensions/{id}/toggle
func (h *ExtensionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/extensions")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.only(w, r, http.MethodGet, h.list)
	case path == "failures":
		h.only(w, r, http.MethodGet, h.failures)
	case path == "schema":
		h.only(w, r, http.MethodGet, h.schema)
	case strings.HasPrefix(path, "actions/"):
		h.only(w, r, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			h.trigger(w, r, strings.TrimPrefix(path, "actions/"))
		})
	case strings.HasSuffix(path, "/toggle"):
		h.only(w, r, http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
			h.toggle(w, r, strings.TrimSuffix(path, "/toggle"))
		})
	case !strings.Contains(path, "/"):
		h.only(w, r, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
			h.get(w, r, path)
		})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *ExtensionHandler) only(w http.ResponseWriter, r *http.Request, method string, fn http.HandlerFunc) {
	if r.Method != method {
		methodNotAllowed(w)
		return
	}
	fn(w, r)
}

func (h *ExtensionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"extensions": h.manager.List(),
	})
}

func (h *ExtensionHandler) failures(w http.ResponseWriter, r *http.Request) {
	failures := h.manager.Failures()
	resp := make([]failureResponse, 0, len(failures))
	for _, f := range failures {
		resp = append(resp, failureResponse{ID: f.ID, Dir: f.Dir, Reason: f.Reason()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"failures": resp})
}

func (h *ExtensionHandler) schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, extension.Schema())
}

func (h *ExtensionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	info, ok := h.manager.Info(id)
	if !ok {
		writeError(w, http.StatusNotFound, "extension not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// toggle flips the extension and returns its new state. A failing lifecycle
// call still flips the flag, so the state is reported alongside the error.
func (h *ExtensionHandler) toggle(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.manager.Info(id); !ok {
		writeError(w, http.StatusNotFound, "extension not found")
		return
	}
	err := h.manager.Toggle(r.Context(), id)
	info, _ := h.manager.Info(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":     err.Error(),
			"extension": info,
		})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ExtensionHandler) trigger(w http.ResponseWriter, r *http.Request, actionID string) {
	err := h.manager.Trigger(r.Context(), actionID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, extension.ErrActionNotFound):
		writeError(w, http.StatusNotFound, "action not found")
	case errors.Is(err, extension.ErrActionDisabled):
		writeError(w, http.StatusConflict, "action is disabled")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
