// Package registry provides the HTTP handlers for registry item retrieval.
package registry

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/component-registry-server/internal/api/common"
	"github.com/stacklok/component-registry-server/internal/auth"
	"github.com/stacklok/component-registry-server/internal/service"
)

const (
	// internalErrorMessage is the only detail a caller sees for system errors
	internalErrorMessage    = "Internal server error"
	registryNotFoundMessage = "Registry not found"
)

// Routes handles HTTP requests for registry items
type Routes struct {
	service service.RegistryService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.RegistryService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates the registry router. Routes under /public are served to
// anyone; every other route passes through authMw first. A nil authMw
// rejects all private requests.
func Router(svc service.RegistryService, authMw func(http.Handler) http.Handler) http.Handler {
	routes := NewRoutes(svc)
	if authMw == nil {
		authMw = auth.TokenMiddleware(auth.StaticSecret(""))
	}

	r := chi.NewRouter()

	r.Get("/public", routes.listAll)
	r.Get("/public/{name}", routes.getItem)

	r.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Get("/", routes.listAll)
		r.Get("/{name}", routes.getItem)
	})

	return r
}

// getItem handles GET /registry/{name} and GET /registry/public/{name}
func (routes *Routes) getItem(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteNotFound(w, r)
		return
	}

	result, found, err := routes.service.GetItem(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !found {
		common.WriteNotFound(w, r)
		return
	}

	common.WriteJSONResponse(w, result.Payload(), http.StatusOK)
}

// listAll handles GET /registry and GET /registry/public
func (routes *Routes) listAll(w http.ResponseWriter, r *http.Request) {
	index, err := routes.service.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, index, http.StatusOK)
}

// writeServiceError translates a service error into a status and body
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidItem):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrRegistryNotFound):
		slog.WarnContext(r.Context(), "Registry unavailable",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		common.WriteErrorResponse(w, registryNotFoundMessage, http.StatusNotFound)
	case errors.Is(err, service.ErrItemNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "Failed to serve registry request",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		common.WriteErrorResponse(w, internalErrorMessage, http.StatusInternalServerError)
	}
}
