// Package server provides the HTTP server for pappadam.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/pappadam/internal/app"
	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	// StreamFPS caps the MJPEG preview rate.
	StreamFPS int
}

// Server is the pappadam HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	overlay *OverlayHub

	mu   sync.Mutex
	http *http.Server
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

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		s.mux.Handle("/api/analyze", api.NewAnalyzeHandler(a))
		s.mux.Handle("/api/compare", api.NewCompareHandler(a))
		s.mux.Handle("/api/settings/", api.NewSettingsHandler(a))
		s.mux.Handle("/api/live", api.NewLiveHandler(a))

		s.overlay = NewOverlayHub(a)
		s.mux.Handle("/api/overlay", s.overlay)
		s.mux.Handle("/api/stream", NewStreamHandler(a, s.config.StreamFPS))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["live"] = a.IsLive()
		if err := a.Failure(); err != nil {
			response["status"] = "degraded"
			response["error"] = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	logger.WithField("addr", addr).Info("http server listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes websocket clients and stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.overlay != nil {
		s.overlay.Close()
	}
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
