package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stacklok/component-registry-server/internal/config"
)

// NewSecretSource builds the token source described by cfg.
// A token file takes precedence over the environment.
func NewSecretSource(cfg *config.AuthConfig) SecretSource {
	if cfg != nil && cfg.TokenFile != "" {
		return FileSecret(cfg.TokenFile)
	}
	var env string
	if cfg != nil {
		env = cfg.TokenEnv
	}
	return EnvSecret(env)
}

// NewAuthMiddleware creates the token middleware for private routes.
// A source that cannot produce a token does not stop startup; private
// requests are rejected until a token becomes available.
func NewAuthMiddleware(ctx context.Context, source SecretSource) (func(http.Handler) http.Handler, error) {
	if source == nil {
		return nil, errors.New("secret source is required")
	}
	if _, err := source.Secret(ctx); err != nil {
		slog.Warn("auth: no access token available, private routes will reject every request", "error", err)
	} else {
		slog.Info("auth: token mode")
	}
	return TokenMiddleware(source), nil
}
