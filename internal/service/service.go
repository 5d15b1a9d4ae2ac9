// Package service provides the business logic for the component registry API
package service

import (
	"context"
	"errors"

	"github.com/stacklok/component-registry-server/internal/catalog"
	"github.com/stacklok/component-registry-server/internal/resolver"
	"github.com/stacklok/component-registry-server/internal/validators"
	"github.com/stacklok/component-registry-server/pkg/registry"
)

var (
	// ErrRegistryNotFound is returned when the catalog cannot be loaded
	ErrRegistryNotFound = errors.New("registry not found")
	// ErrItemNotFound is returned when an item is not found
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidItem is returned when a catalog entry fails schema validation
	ErrInvalidItem = validators.ErrInvalidItem
	// ErrFileRead is returned when one of an item's files cannot be read
	ErrFileRead = resolver.ErrFileRead
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go RegistryService

// RegistryService defines the interface for registry operations
type RegistryService interface {
	// CheckReadiness checks if the catalog can be loaded
	CheckReadiness(ctx context.Context) error

	// GetItem returns the named item with its file contents resolved, or the
	// whole catalog when name is registry.CatalogName. The boolean is false
	// when no item can be served under that name.
	GetItem(ctx context.Context, name string) (*ItemResult, bool, error)

	// ListAll returns the whole catalog as loaded
	ListAll(ctx context.Context) (*catalog.Index, error)
}

// ItemResult is the outcome of a successful GetItem call.
// Exactly one of Catalog and Item is set.
type ItemResult struct {
	Catalog *catalog.Index
	Item    *registry.ResolvedItem
}

// Payload returns the value to encode in a response
func (r *ItemResult) Payload() any {
	if r == nil {
		return nil
	}
	if r.Catalog != nil {
		return r.Catalog
	}
	return r.Item
}
