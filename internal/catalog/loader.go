package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Loader retrieves the catalog from its source
type Loader interface {
	// Load reads and parses the catalog. Each call reads the source again.
	Load(ctx context.Context) (*Index, error)

	// Source returns a descriptive string about where the catalog comes from
	Source() string
}

// fileLoader reads the catalog from the local filesystem
type fileLoader struct {
	path   string
	format Format
}

// NewFileLoader creates a loader reading the catalog at path.
// The format is inferred from the file extension.
func NewFileLoader(path string) Loader {
	return &fileLoader{
		path:   path,
		format: FormatFromPath(path),
	}
}

// Load implements Loader.Load
func (l *fileLoader) Load(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return nil, fmt.Errorf("%w: catalog path is not configured", ErrCatalogUnavailable)
	}

	//nolint:gosec // Catalog path comes from server configuration
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrCatalogUnavailable, l.path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrCatalogUnavailable, l.path, err)
	}

	return Parse(data, l.format)
}

// Source implements Loader.Source
func (l *fileLoader) Source() string {
	if l.path == "" {
		return "file:<not-configured>"
	}
	return "file:" + l.path
}

// fsLoader reads the catalog from an fs.FS
type fsLoader struct {
	fsys   fs.FS
	name   string
	format Format
}

// NewFSLoader creates a loader reading the catalog named name from fsys
func NewFSLoader(fsys fs.FS, name string) Loader {
	return &fsLoader{
		fsys:   fsys,
		name:   name,
		format: FormatFromPath(name),
	}
}

// Load implements Loader.Load
func (l *fsLoader) Load(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.fsys == nil {
		return nil, fmt.Errorf("%w: no filesystem configured", ErrCatalogUnavailable)
	}

	data, err := fs.ReadFile(l.fsys, l.name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrCatalogUnavailable, l.name, err)
	}

	return Parse(data, l.format)
}

// Source implements Loader.Source
func (l *fsLoader) Source() string {
	return "fs:" + l.name
}
