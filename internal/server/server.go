// Package server provides the HTTP result server: health, the gesture store
// summary, live detections over WebSocket and an MJPEG preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Frames    FrameSource
	Logger    *log.Logger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config     Config
	mux        *http.ServeMux
	start      time.Time
	store      atomic.Pointer[gesture.Store]
	detections *DetectionsHandler
	logger     *log.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		config:     config,
		mux:        http.NewServeMux(),
		start:      time.Now(),
		detections: NewDetectionsHandler(logger),
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	gestures := api.NewGestureHandler(s.Store)
	s.mux.Handle("/api/gestures", gestures)
	s.mux.Handle("/api/gestures/", gestures)

	s.mux.Handle("/api/detections", s.detections)

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// SetStore publishes the store of the current session.
func (s *Server) SetStore(st *gesture.Store) {
	s.store.Store(st)
}

// Store returns the store of the current session, or nil.
func (s *Server) Store() *gesture.Store {
	return s.store.Load()
}

// Publish broadcasts a detection result to every WebSocket client.
func (s *Server) Publish(r session.Result) {
	s.detections.Broadcast(r)
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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Printf("Result server listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.detections.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Println("Result server stopped")
	return nil
}
