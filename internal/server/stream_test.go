package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/sched"
	"github.com/ayusman/surfshell/internal/trail"
)

func TestTrailStream_WritesFrames(t *testing.T) {
	r := gesture.NewRecognizer(gesture.WithScheduler(sched.NewManual()))
	rec := &trail.Recorder{}
	rec.Attach(r)
	r.Start(gesture.Point{X: 10, Y: 10})
	r.Update(gesture.Point{X: 80, Y: 12})

	h := NewTrailStreamHandler(rec, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/trail/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if n := strings.Count(body, "--frame\r\n"); n != 1 {
		t.Errorf("expected 1 frame for an unchanged trail, got %d", n)
	}
	if !strings.Contains(body, "Content-Type: image/png") {
		t.Error("expected a PNG frame")
	}
}

func TestTrailStream_NoTrailNoFrames(t *testing.T) {
	h := NewTrailStreamHandler(&trail.Recorder{}, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/trail/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Body.Len() != 0 {
		t.Errorf("expected an empty body, got %d bytes", w.Body.Len())
	}
}

func TestTrailStream_MethodNotAllowed(t *testing.T) {
	h := NewTrailStreamHandler(&trail.Recorder{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/trail/stream", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
}
