package rest

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/decades/internal/core/ports"
	"github.com/ewilliams-labs/decades/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      *services.Dashboard // Dependency on the Core Service
	renderer ports.ChartRenderer
	exporter ports.PageExporter
	log      *zap.Logger
	router   *http.ServeMux // Standard library router
}

// NewHandler initializes the HTTP adapter and sets up routes. renderer and
// exporter may be nil; their routes then answer 501.
func NewHandler(svc *services.Dashboard, renderer ports.ChartRenderer, exporter ports.PageExporter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:      svc,
		renderer: renderer,
		exporter: exporter,
		log:      log,
		router:   http.NewServeMux(),
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// Every request gets an id and an access log line.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withRequestID(h.router).ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)
	// Views are read-only
	h.router.HandleFunc("GET /views", h.ListViews)
	h.router.HandleFunc("GET /views/{id}", h.GetView)
	h.router.HandleFunc("GET /views/{id}/artists/{artist}", h.GetArtistFeatures)
	h.router.HandleFunc("GET /views/{id}/charts/{chart}", h.GetChartImage)
	h.router.HandleFunc("GET /views/{id}/export.xlsx", h.ExportView)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "decades is live 🎶"})
}
