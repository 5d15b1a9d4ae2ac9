package telemetry

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// unknownRoute labels requests chi could not match, keeping label cardinality bounded
const unknownRoute = "unknown_route"

// RouteAccess classifies a matched route by the credentials it needs
type RouteAccess string

const (
	// AccessPublic routes are served without a token
	AccessPublic RouteAccess = "public"
	// AccessPrivate routes require the access token
	AccessPrivate RouteAccess = "private"
	// AccessOperational covers health, readiness, version, head and metrics
	AccessOperational RouteAccess = "operational"
)

const (
	registryPrefix       = "/registry"
	publicRegistryPrefix = "/registry/public"
)

// routePattern returns the matched chi pattern (e.g. "/registry/{name}"),
// or unknownRoute when nothing matched.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}

// routeAccess classifies a route pattern. "/registry/public" is a static
// segment, so it is checked before the private "/registry/{name}".
func routeAccess(route string) RouteAccess {
	switch {
	case route == publicRegistryPrefix || strings.HasPrefix(route, publicRegistryPrefix+"/"):
		return AccessPublic
	case route == registryPrefix || strings.HasPrefix(route, registryPrefix+"/"):
		return AccessPrivate
	default:
		return AccessOperational
	}
}

// itemName returns the {name} URL parameter of a registry route
func itemName(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.URLParam("name")
}
