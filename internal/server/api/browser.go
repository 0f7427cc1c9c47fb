package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/zen"
)

// BrowserHandler drives the browser shell: tabs, navigation, the toolbar
// commands and zen mode.
type BrowserHandler struct {
	shell *browser.Shell
	zen   *zen.Controller
}

// NewBrowserHandler creates a BrowserHandler. z may be nil.
func NewBrowserHandler(s *browser.Shell, z *zen.Controller) *BrowserHandler {
	return &BrowserHandler{shell: s, zen: z}
}

type urlRequest struct {
	URL string `json:"url"`
}

type zenResponse struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state"`
}

// ServeHTTP routes:
//
//	GET    /api/browser/tabs
//	POST   /api/browser/tabs               {"url": "..."}
//	POST   /api/browser/tabs/{id}/activate
//	DELETE /api/browser/tabs/{id}
//	POST   /api/browser/navigate           {"url": "..."}
//	POST   /api/browser/{command}          back, forward, reload, home, close-tab, zoom-in, zoom-out, zoom-reset
//	GET    /api/browser/zen
//	POST   /api/browser/zen/{event}        toggle, hot-zone, pointer-enter, pointer-leave
func (h *BrowserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/browser")
	path = strings.Trim(path, "/")

	switch {
	case path == "tabs":
		switch r.Method {
		case http.MethodGet:
			h.tabs(w, r)
		case http.MethodPost:
			h.openTab(w, r)
		default:
			methodNotAllowed(w)
		}
	case strings.HasPrefix(path, "tabs/"):
		h.tab(w, r, strings.TrimPrefix(path, "tabs/"))
	case path == "zen" || strings.HasPrefix(path, "zen/"):
		h.zenMode(w, r, strings.TrimPrefix(strings.TrimPrefix(path, "zen"), "/"))
	case path == "navigate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.navigate(w, r)
	default:
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.command(w, r, path)
	}
}

func (h *BrowserHandler) tabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tabs":   h.shell.Tabs(),
		"status": h.shell.Status(),
	})
}

func (h *BrowserHandler) openTab(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	t, err := h.shell.NewTab(r.Context(), req.URL)
	if err != nil {
		writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.info(t.ID()))
}

func (h *BrowserHandler) tab(w http.ResponseWriter, r *http.Request, rest string) {
	var err error
	switch {
	case strings.HasSuffix(rest, "/activate") && r.Method == http.MethodPost:
		err = h.shell.SwitchTab(strings.TrimSuffix(rest, "/activate"))
	case !strings.Contains(rest, "/") && r.Method == http.MethodDelete:
		err = h.shell.CloseTab(r.Context(), rest)
	default:
		methodNotAllowed(w)
		return
	}
	if errors.Is(err, browser.ErrTabNotFound) {
		writeError(w, http.StatusNotFound, "tab not found")
		return
	}
	if err != nil {
		writeLoadError(w, err)
		return
	}
	h.tabs(w, r)
}

func (h *BrowserHandler) navigate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.shell.Navigate(r.Context(), req.URL); err != nil {
		writeLoadError(w, err)
		return
	}
	h.tabs(w, r)
}

func (h *BrowserHandler) command(w http.ResponseWriter, r *http.Request, name string) {
	run, ok := map[string]func(context.Context) error{
		"back":       h.shell.Back,
		"forward":    h.shell.Forward,
		"reload":     h.shell.Reload,
		"home":       h.shell.Home,
		"close-tab":  h.shell.CloseCurrentTab,
		"zoom-in":    func(context.Context) error { h.shell.ZoomIn(); return nil },
		"zoom-out":   func(context.Context) error { h.shell.ZoomOut(); return nil },
		"zoom-reset": func(context.Context) error { h.shell.ZoomReset(); return nil },
	}[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown command")
		return
	}
	if err := run(r.Context()); err != nil {
		writeLoadError(w, err)
		return
	}
	h.tabs(w, r)
}

func (h *BrowserHandler) zenMode(w http.ResponseWriter, r *http.Request, event string) {
	if h.zen == nil {
		writeError(w, http.StatusNotFound, "zen mode unavailable")
		return
	}
	if event == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
	} else {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		switch event {
		case "toggle":
			h.zen.Toggle()
		case "hot-zone":
			h.zen.HotZoneEnter()
		case "pointer-enter":
			h.zen.PointerEnter()
		case "pointer-leave":
			h.zen.PointerLeave()
		default:
			writeError(w, http.StatusNotFound, "unknown zen event")
			return
		}
	}
	writeJSON(w, http.StatusOK, zenResponse{Enabled: h.zen.Enabled(), State: h.zen.State().String()})
}

func (h *BrowserHandler) info(id string) browser.TabInfo {
	for _, t := range h.shell.Tabs() {
		if t.ID == id {
			return t
		}
	}
	return browser.TabInfo{ID: id}
}

// writeLoadError maps page load failures to status codes.
func writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, browser.ErrEmptyURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, browser.ErrBlocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
