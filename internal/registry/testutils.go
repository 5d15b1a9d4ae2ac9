package registry

import (
	"encoding/json"
	"fmt"
	"testing/fstest"
)

// TestCatalog is a catalog document under construction
type TestCatalog struct {
	Items    []*TestItem
	Envelope bool
}

// TestItem is a catalog entry under construction together with its file contents
type TestItem struct {
	Fields   map[string]any
	Files    []map[string]any
	Contents map[string]string
}

// CatalogOption is a function that configures a TestCatalog
type CatalogOption func(*TestCatalog)

// ItemOption is a function that configures a TestItem
type ItemOption func(*TestItem)

// NewTestCatalog creates a new catalog for testing and applies any provided options
func NewTestCatalog(opts ...CatalogOption) *TestCatalog {
	c := &TestCatalog{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithItems adds items to the catalog
func WithItems(items ...*TestItem) CatalogOption {
	return func(c *TestCatalog) {
		c.Items = append(c.Items, items...)
	}
}

// WithEnvelope emits the catalog as {"name": ..., "items": [...]} instead of a bare array
func WithEnvelope() CatalogOption {
	return func(c *TestCatalog) {
		c.Envelope = true
	}
}

// NewTestItem creates a new catalog entry for testing with default values
// and applies any provided options
func NewTestItem(name string, opts ...ItemOption) *TestItem {
	item := &TestItem{
		Fields: map[string]any{
			"name":  name,
			"type":  "registry:ui",
			"title": name,
		},
		Contents: map[string]string{},
	}
	for _, opt := range opts {
		opt(item)
	}
	return item
}

// WithType sets the item type
func WithType(itemType string) ItemOption {
	return func(i *TestItem) {
		i.Fields["type"] = itemType
	}
}

// WithDescription sets the item description
func WithDescription(description string) ItemOption {
	return func(i *TestItem) {
		i.Fields["description"] = description
	}
}

// WithFile adds a file reference and records the content to write for it
func WithFile(path, content string) ItemOption {
	return func(i *TestItem) {
		i.Files = append(i.Files, map[string]any{"path": path, "type": "registry:ui"})
		i.Contents[path] = content
	}
}

// WithFileRef adds a file reference without any content on disk
func WithFileRef(path string) ItemOption {
	return func(i *TestItem) {
		i.Files = append(i.Files, map[string]any{"path": path, "type": "registry:ui"})
	}
}

// WithField sets an arbitrary top-level field, overriding defaults
func WithField(key string, value any) ItemOption {
	return func(i *TestItem) {
		i.Fields[key] = value
	}
}

// Entry returns the catalog entry as a generic JSON object
func (i *TestItem) Entry() map[string]any {
	entry := make(map[string]any, len(i.Fields)+1)
	for k, v := range i.Fields {
		entry[k] = v
	}
	if _, overridden := i.Fields["files"]; !overridden && len(i.Files) > 0 {
		entry["files"] = i.Files
	}
	return entry
}

// JSON encodes the catalog document
func (c *TestCatalog) JSON() []byte {
	entries := make([]map[string]any, 0, len(c.Items))
	for _, item := range c.Items {
		entries = append(entries, item.Entry())
	}

	var doc any = entries
	if c.Envelope {
		doc = map[string]any{
			"name":  "test",
			"items": entries,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("failed to encode test catalog: %v", err))
	}
	return data
}

// WriteFiles adds every file content declared by the catalog items to fsys
func (c *TestCatalog) WriteFiles(fsys fstest.MapFS) {
	for _, item := range c.Items {
		for path, content := range item.Contents {
			fsys[path] = &fstest.MapFile{Data: []byte(content)}
		}
	}
}

// FS returns a filesystem containing the catalog document at name and every file content
func (c *TestCatalog) FS(name string) fstest.MapFS {
	fsys := fstest.MapFS{
		name: &fstest.MapFile{Data: c.JSON()},
	}
	c.WriteFiles(fsys)
	return fsys
}
