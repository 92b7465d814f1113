package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stashapp/stego/internal/config"
	"github.com/stashapp/stego/pkg/sqlite"
)

// Server wraps the chi router and the http.Server listening in front of
// it. Lifetime is owned by the caller of NewServer/ListenAndServe.
type Server struct {
	cfg    config.Config
	router chi.Router
	http   *http.Server
}

// NewServer opens the report-history store at cfg.DatabasePath and
// builds the routed HTTP server.
func NewServer(cfg config.Config) (*Server, error) {
	history, err := sqlite.OpenReportHistory(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("api: opening report history: %w", err)
	}

	handler := NewRESTHandler(cfg, history)

	r := chi.NewRouter()
	r.Mount("/api/v1", handler.RESTRoutes())

	return &Server{
		cfg:    cfg,
		router: r,
		http:   &http.Server{Addr: cfg.ListenAddr, Handler: r},
	}, nil
}

// ListenAndServe blocks serving HTTP until the listener fails.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}
