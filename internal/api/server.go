// Package api exposes the analyzer and retrieval engine over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tbellem/finrep"
	"github.com/tbellem/finrep/store"
)

// Server is the finrep HTTP API server.
type Server struct {
	router   chi.Router
	analyzer *finrep.Analyzer
	store    *store.Store
	log      *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(analyzer *finrep.Analyzer, st *store.Store, log *slog.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		store:    st,
		log:      log,
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

	r.Get("/health", s.handleHealth)

	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/query", s.handleQuery)
	r.Get("/api/documents", s.handleListDocuments)
	r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
