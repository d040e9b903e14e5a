// Package web provides the HTTP JSON backend the rumah-finder front end
// calls for search, suggestions, recent searches and geocoding.
package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evcraddock/rumah-finder/internal/logging"
	"github.com/evcraddock/rumah-finder/internal/session"
)

// Server is the backend HTTP server.
type Server struct {
	sess   *session.Session
	logger *slog.Logger
	router chi.Router
}

// NewServer creates a server on top of an open session. origins lists the
// browser origins allowed by CORS.
func NewServer(sess *session.Session, origins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{sess: sess, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, logging.RequestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", logging.RequestIDHeader},
		ExposedHeaders: []string{logging.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.apiSearch)
		r.Get("/directory", s.apiDirectory)

		r.Get("/suggest", s.apiSuggest)
		r.Post("/suggest/commit", s.apiCommitSuggestion)

		r.Get("/recent", s.apiListRecent)
		r.Delete("/recent", s.apiClearRecent)

		r.Post("/geocode/detect", s.apiDetect)
		r.Post("/geocode/manual", s.apiManual)
		r.Get("/geocode/near", s.apiNear)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for the given port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok", "session": s.sess.ID}, http.StatusOK)
}
