package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultTokenEnv is the environment variable holding the access token
const DefaultTokenEnv = "COMPONENT_REGISTRY_TOKEN"

// ErrNoSecret is returned when the configured secret is empty or unavailable
var ErrNoSecret = errors.New("no access token configured")

// SecretSource provides the shared access token. It is consulted on every
// request so the token can be rotated without a restart.
type SecretSource interface {
	Secret(ctx context.Context) (string, error)
}

// SecretFunc adapts a function to SecretSource
type SecretFunc func(ctx context.Context) (string, error)

// Secret implements SecretSource
func (f SecretFunc) Secret(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticSecret returns a source that always yields token
func StaticSecret(token string) SecretSource {
	return SecretFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoSecret
		}
		return token, nil
	})
}

// EnvSecret returns a source reading the token from the environment variable name
func EnvSecret(name string) SecretSource {
	if name == "" {
		name = DefaultTokenEnv
	}
	v := viper.New()
	// BindEnv only fails without a key
	_ = v.BindEnv("token", name)

	return SecretFunc(func(context.Context) (string, error) {
		token := strings.TrimSpace(v.GetString("token"))
		if token == "" {
			return "", fmt.Errorf("%w: environment variable %s is empty", ErrNoSecret, name)
		}
		return token, nil
	})
}

// FileSecret returns a source reading the token from a file on every call.
// Surrounding whitespace is trimmed.
func FileSecret(path string) SecretSource {
	return SecretFunc(func(context.Context) (string, error) {
		if path == "" {
			return "", fmt.Errorf("%w: token file path is empty", ErrNoSecret)
		}
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("%w: failed to read token file: %w", ErrNoSecret, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("%w: token file %s is empty", ErrNoSecret, path)
		}
		return token, nil
	})
}
