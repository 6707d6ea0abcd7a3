// Package api exposes statement parsing and catalog conversion over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coolbeans/ctlcat/pkg/config"
	"github.com/coolbeans/ctlcat/pkg/logging"
	"github.com/coolbeans/ctlcat/pkg/outline"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 16 << 20

// Server is the HTTP API server for ctlcat.
type Server struct {
	router   chi.Router
	cfg      config.Config
	log      logging.Logger
	parser   *outline.Parser
	maxBytes int64
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg config.Config, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		parser:   statementParser(cfg),
		maxBytes: DefaultMaxBodyBytes,
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
	r.Post("/api/statements", s.handleStatement)
	r.Post("/api/catalogs", s.handleCatalog)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
