// Package server provides the HTTP server for recognition sessions.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Sessions *session.Manager
	// Store enables transcript persistence and the /api/transcripts routes.
	Store *store.Store
	// OnConfirm is notified of every confirmed transcript.
	OnConfirm api.ConfirmHook
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  logrus.FieldLogger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	log    logrus.FieldLogger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		log:    log,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Sessions != nil {
		sessions := api.NewSessionHandler(s.config.Sessions, s.config.Store, s.config.OnConfirm, s.log)
		landmarks := NewLandmarksHandler(s.config.Sessions, s.log)

		// The landmark stream is a websocket; everything else is JSON.
		router := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/landmarks") {
				landmarks.ServeHTTP(w, r)
				return
			}
			sessions.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/sessions", router)
		s.mux.Handle("/api/sessions/", router)
	}

	if s.config.Store != nil {
		transcripts := api.NewTranscriptHandler(s.config.Store)
		s.mux.Handle("/api/transcripts", transcripts)
		s.mux.Handle("/api/transcripts/", transcripts)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.WithFields(logrus.Fields{
		"method":  r.Method,
		"path":    r.URL.Path,
		"elapsed": time.Since(begin),
	}).Debug("request")
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
	if s.config.Sessions != nil {
		response["sessions"] = s.config.Sessions.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// NewHTTPServer wraps s in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
