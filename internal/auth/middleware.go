// Package auth provides the shared-token middleware guarding private registry routes.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stacklok/component-registry-server/internal/api/common"
)

const (
	// TokenQueryParam is the query parameter consulted when no bearer token is sent
	TokenQueryParam = "token"

	// InvalidCredentialsMessage is the only message a rejected caller sees
	InvalidCredentialsMessage = "Invalid credentials."

	bearerPrefix = "bearer "
)

// TokenMiddleware rejects requests that do not carry the token provided by source.
// The token is taken from an "Authorization: Bearer" header, falling back to
// the "token" query parameter. Rejected requests never reach next.
func TokenMiddleware(source SecretSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := extractToken(r)
			if presented == "" {
				reject(w, r, "missing token")
				return
			}

			secret, err := source.Secret(r.Context())
			if err != nil {
				slog.Error("Access token unavailable", "error", err)
				reject(w, r, "secret unavailable")
				return
			}

			if !tokensEqual(presented, secret) {
				reject(w, r, "token mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken returns the bearer token, or the token query parameter when
// no bearer token is present
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	return r.URL.Query().Get(TokenQueryParam)
}

// tokensEqual compares in constant time for equal-length inputs
func tokensEqual(presented, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}

func reject(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("Request rejected",
		"reason", reason,
		"remote_addr", r.RemoteAddr,
		"path", r.URL.Path)

	common.WriteErrorResponse(w, InvalidCredentialsMessage, http.StatusForbidden)
}
