// Package server provides the HTTP server for the fingerspelling trainer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/server/api"
	"github.com/ayusman/fingerspell/internal/store"
)

// Controller is the running application as seen by the HTTP layer.
type Controller interface {
	api.Quiz
	api.Animator
	api.Trainer
	FrameSource
}

// Config holds the server configuration. Routes whose dependencies are
// nil are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       Controller
	Hub       *Hub
}

// Server represents the HTTP server for the application.
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

	if s.config.Store != nil {
		var trainer api.Trainer
		if s.config.App != nil {
			trainer = s.config.App
		}
		letters := api.NewLetterHandler(s.config.Store, trainer)
		s.mux.Handle("/api/letters", letters)
		s.mux.Handle("/api/letters/", letters)

		var q api.Quiz
		if s.config.App != nil {
			q = s.config.App
		}
		s.mux.Handle("/api/attempts", api.NewAttemptsHandler(s.config.Store, q))
	}

	if s.config.App != nil {
		quiz := api.NewQuizHandler(s.config.App)
		s.mux.Handle("/api/quiz", quiz)
		s.mux.Handle("/api/quiz/", quiz)

		animation := api.NewAnimationHandler(s.config.App)
		s.mux.Handle("/api/animation", animation)
		s.mux.Handle("/api/animation/", animation)

		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
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

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	monitoring.Logf("Listening on http://%s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
