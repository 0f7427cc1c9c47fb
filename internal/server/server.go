// Package server provides the local control server of surfshell: a JSON API
// over the browser shell, extensions and stores, plus live event and trail streams.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/surfshell/internal/browser"
	"github.com/ayusman/surfshell/internal/extension"
	"github.com/ayusman/surfshell/internal/gesture"
	"github.com/ayusman/surfshell/internal/server/api"
	"github.com/ayusman/surfshell/internal/store"
	"github.com/ayusman/surfshell/internal/trail"
	"github.com/ayusman/surfshell/internal/zen"
)

// shutdownTimeout bounds a graceful stop.
const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Routes are registered only for the
// components that are set.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Extensions *extension.Manager
	Shell      *browser.Shell
	Zen        *zen.Controller
	Recognizer *gesture.Recognizer
	Trail      *trail.Recorder
	Events     *Hub
}

// Server represents the HTTP server for the surfshell application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	handle := func(prefix string, h http.Handler) {
		s.mux.Handle(prefix, h)
		s.mux.Handle(prefix+"/", h)
	}

	if s.config.Store != nil {
		handle("/api/gestures", api.NewGestureHandler(s.config.Store, s.config.Trail, s.config.Recognizer))
		handle("/api/history", api.NewHistoryHandler(s.config.Store))
		handle("/api/bookmarks", api.NewBookmarkHandler(s.config.Store))
		handle("/api/downloads", api.NewDownloadHandler(s.config.Store))
	}

	if s.config.Extensions != nil {
		handle("/api/extensions", api.NewExtensionHandler(s.config.Extensions))
	}

	if s.config.Shell != nil {
		handle("/api/browser", api.NewBrowserHandler(s.config.Shell, s.config.Zen))
	}

	if s.config.Trail != nil {
		s.mux.Handle("/api/trail/stream", NewTrailStreamHandler(s.config.Trail, DefaultFrameInterval))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Extensions != nil {
		response["extensions"] = s.config.Extensions.Len()
		response["failures"] = len(s.config.Extensions.Failures())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.config.Events != nil {
		s.config.Events.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
