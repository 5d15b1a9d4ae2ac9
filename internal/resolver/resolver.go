// Package resolver reads the source files referenced by a registry item.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/component-registry-server/pkg/registry"
)

// ErrFileRead is returned when any file of an item cannot be read
var ErrFileRead = errors.New("failed to read registry file")

// FileReadError identifies the file that could not be read
type FileReadError struct {
	Path string
	Err  error
}

// Error implements error
func (e *FileReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrFileRead, e.Path, e.Err)
}

// Unwrap returns the underlying read error
func (e *FileReadError) Unwrap() error {
	return e.Err
}

// Is makes FileReadError match ErrFileRead
func (*FileReadError) Is(target error) bool {
	return target == ErrFileRead
}

// ReadRecorder observes individual file reads
type ReadRecorder interface {
	RecordFileRead(ctx context.Context, bytes int, err error)
}

// FileResolver reads file content for a list of file references
type FileResolver interface {
	// Resolve reads every file concurrently. The result preserves the input
	// order; if any read fails, no partial result is returned.
	Resolve(ctx context.Context, files []registry.File) ([]registry.ResolvedFile, error)
}

// Option configures a fsResolver
type Option func(*fsResolver)

// WithReadRecorder sets a recorder notified after each file read
func WithReadRecorder(rec ReadRecorder) Option {
	return func(r *fsResolver) {
		r.recorder = rec
	}
}

// fsResolver resolves files against an fs.FS rooted at the files root
type fsResolver struct {
	root     fs.FS
	recorder ReadRecorder
}

// NewFileResolver creates a resolver reading files from root
func NewFileResolver(root fs.FS, opts ...Option) FileResolver {
	r := &fsResolver{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements FileResolver.Resolve
func (r *fsResolver) Resolve(ctx context.Context, files []registry.File) ([]registry.ResolvedFile, error) {
	if r.root == nil {
		return nil, &FileReadError{Err: errors.New("no files root configured")}
	}

	resolved := make([]registry.ResolvedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)

	// One goroutine per file; each writes only its own slot.
	for i, f := range files {
		g.Go(func() error {
			content, err := r.readFile(gctx, f.Path)
			if r.recorder != nil {
				r.recorder.RecordFileRead(gctx, len(content), err)
			}
			if err != nil {
				return &FileReadError{Path: f.Path, Err: err}
			}
			resolved[i] = registry.ResolvedFile{File: f, Content: content}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// readFile reads a single file as UTF-8 text
func (r *fsResolver) readFile(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleaned, err := cleanPath(name)
	if err != nil {
		return "", err
	}

	data, err := fs.ReadFile(r.root, cleaned)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New("file content is not valid UTF-8")
	}
	return string(data), nil
}

// cleanPath converts a catalog file path into an fs.FS path relative to the root
func cleanPath(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("file path is empty")
	}

	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("file path %q does not name a file", name)
	}
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("file path %q escapes the files root", name)
	}
	return cleaned, nil
}
