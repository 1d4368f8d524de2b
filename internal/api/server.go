package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/autopages/internal/config"
	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for autopages.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	converter    *convert.Converter
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, conv *convert.Converter, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		converter:    conv,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/decks", s.handleCreateDecks)
		r.Get("/api/decks/{jobID}/status", s.handleDeckStatus)
		r.Get("/api/decks/{jobID}/files/*", s.handleDeckFile)

		r.Post("/api/templates/inspect", s.handleInspectTemplate)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
