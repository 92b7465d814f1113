// Package api exposes pkg/stego's validator over a thin chi REST router,
// the transport shape this module's out-of-scope "chat server" caller
// uses to reach validate_file/sanitize_image.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"

	"github.com/stashapp/stego/internal/config"
	"github.com/stashapp/stego/pkg/logger"
	"github.com/stashapp/stego/pkg/sqlite"
)

var accessLog = httplog.NewLogger("stego-api", httplog.Options{
	JSON:    false,
	Concise: true,
})

// RESTHandler is the base handler for all /api/v1 endpoints.
type RESTHandler struct {
	cfg      config.Config
	history  *sqlite.ReportHistory
	progress *progressBroker
}

// NewRESTHandler wires a RESTHandler against an already-open report
// history store.
func NewRESTHandler(cfg config.Config, history *sqlite.ReportHistory) *RESTHandler {
	return &RESTHandler{
		cfg:      cfg,
		history:  history,
		progress: newProgressBroker(),
	}
}

// respondJSON writes a JSON response with the given status code and data.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Errorf("api: error encoding response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]interface{}{"error": err.Error()})
}

// RESTRoutes mounts every /api/v1 route on a fresh chi.Router.
func (h *RESTHandler) RESTRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Post("/validate", h.postValidate)
	r.Post("/sanitize", h.postSanitize)
	r.Get("/reports/{hash}", h.getReport)
	r.Get("/progress", h.getProgressStream)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requirePIN)
		r.Post("/rescan", h.postRescan)
	})

	return r
}

// requirePIN gates admin endpoints behind the configured PIN, sent as
// the X-Admin-PIN header. An empty configured PIN disables admin access
// entirely rather than accepting any value.
func (h *RESTHandler) requirePIN(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminPIN == "" || r.Header.Get("X-Admin-PIN") != h.cfg.AdminPIN {
			respondError(w, http.StatusForbidden, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
