package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/component-registry-server/internal/api/common"
	"github.com/stacklok/component-registry-server/internal/head"
	"github.com/stacklok/component-registry-server/internal/service"
	"github.com/stacklok/component-registry-server/pkg/versions"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.RegistryService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the catalog can be loaded
func readinessHandler(svc service.RegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			common.WriteErrorResponse(w, "Registry not ready", http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, HealthResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

func headHandler(g *head.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := g.Head()
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to render site head", "error", err)
			common.WriteErrorResponse(w, "Site head unavailable", http.StatusInternalServerError)
			return
		}
		common.WriteJSONResponse(w, h, http.StatusOK)
	}
}
