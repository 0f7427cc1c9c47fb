package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/store"
	"github.com/ayusman/surfshell/internal/trail"
)

// GestureHandler serves the gesture log, the trail image and pointer input.
type GestureHandler struct {
	store      *store.Store
	recorder   *trail.Recorder
	recognizer *gesture.Recognizer
}

// NewGestureHandler creates a GestureHandler. recorder and recognizer may be
// nil, in which case the trail and input endpoints answer 404.
func NewGestureHandler(s *store.Store, recorder *trail.Recorder, recognizer *gesture.Recognizer) *GestureHandler {
	return &GestureHandler{store: s, recorder: recorder, recognizer: recognizer}
}

// inputRequest is a pointer event posted by a UI front end.
type inputRequest struct {
	Kind   string  `json:"kind"`
	Button string  `json:"button"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.list(w, r)
	case "trail.png":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.trail(w, r)
	case "input":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.input(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// list handles GET /api/gestures and returns the recent log and per-command counts.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Gestures().Recent(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gestures")
		return
	}
	counts, err := h.store.Gestures().CountByCommand(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count gestures")
		return
	}
	if events == nil {
		events = []*store.GestureEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"counts": counts,
	})
}

// trail handles GET /api/gestures/trail.png.
func (h *GestureHandler) trail(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusNotFound, "no trail recorder")
		return
	}
	png, err := trail.Render(h.recorder.Snapshot(), trail.Options{
		Width:  queryInt(r, "width", 0),
		Height: queryInt(r, "height", 0),
		Style:  trail.DefaultStyle(),
	})
	if errors.Is(err, trail.ErrEmptyPath) {
		writeError(w, http.StatusNotFound, "no gesture drawn yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// input handles POST /api/gestures/input.
func (h *GestureHandler) input(w http.ResponseWriter, r *http.Request) {
	if h.recognizer == nil {
		writeError(w, http.StatusNotFound, "no recognizer")
		return
	}

	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ev := gesture.Event{Point: gesture.Point{X: req.X, Y: req.Y}}
	switch req.Kind {
	case "press":
		ev.Kind = gesture.Press
	case "move":
		ev.Kind = gesture.Move
	case "release":
		ev.Kind = gesture.Release
	default:
		writeError(w, http.StatusBadRequest, "kind must be press, move or release")
		return
	}
	if ev.Kind != gesture.Move {
		b, err := gesture.ParseButton(req.Button)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev.Button = b
	}

	writeJSON(w, http.StatusOK, map[string]bool{"consumed": h.recognizer.HandleEvent(ev)})
}
