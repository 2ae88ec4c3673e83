package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness and build information
type HealthHandler struct {
	version   string
	buildTime string
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, buildTime string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		buildTime: buildTime,
		startedAt: time.Now(),
	}
}

// Routes returns the health routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Health)
	return r
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	Uptime    string `json:"uptime"`
}

// Health reports service liveness
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		BuildTime: h.buildTime,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	})
}
