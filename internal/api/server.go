package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/harmonize/internal/harmony"
)

// Server exposes the converter over HTTP for callers that want one-off
// conversions without dropping files on disk.
type Server struct {
	router    *chi.Mux
	port      int
	builder   *harmony.Builder
	validator *harmony.Validator
}

func NewServer(port int, builder *harmony.Builder, validator *harmony.Validator) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		builder:   builder,
		validator: validator,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/harmonize/status", s.status)
	router.Post("/api/v1/harmonize/convert", s.convert)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"service": "harmonize",
		"status":  "ready",
	})
}
