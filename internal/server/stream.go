package server

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/trail"
)

// DefaultFrameInterval paces the trail stream at roughly 15 frames per second.
const DefaultFrameInterval = 66 * time.Millisecond

// TrailStreamHandler serves the gesture trail as a multipart PNG stream so an
// overlay can follow the pointer while a gesture is drawn.
type TrailStreamHandler struct {
	recorder *trail.Recorder
	interval time.Duration
}

// NewTrailStreamHandler creates a TrailStreamHandler reading from rec.
func NewTrailStreamHandler(rec *trail.Recorder, interval time.Duration) *TrailStreamHandler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TrailStreamHandler{recorder: rec, interval: interval}
}

// ServeHTTP streams a frame whenever the live trail changes.
func (h *TrailStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []gesture.Point
	for {
		if path := h.recorder.Live(); !slices.Equal(path, last) {
			last = path
			if len(path) > 0 {
				if err := h.writeFrame(w, path); err != nil {
					return
				}
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *TrailStreamHandler) writeFrame(w http.ResponseWriter, path []gesture.Point) error {
	png, err := trail.Render(path, trail.Options{Style: trail.DefaultStyle()})
	if err != nil {
		return nil
	}

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/png\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(png))
	if _, err := w.Write(png); err != nil {
		return err
	}
	fmt.Fprintf(w, "\r\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
