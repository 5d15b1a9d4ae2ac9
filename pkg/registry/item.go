// Package registry provides the component item format served by the registry.
//
// Items are decoded from loosely typed catalog entries. Fields the server does
// not interpret are retained in Extra and written back unchanged, so a served
// item carries the same descriptive metadata as its catalog entry.
package registry

import (
	"encoding/json"
	"fmt"
)

// CatalogName is the item name that addresses the whole catalog instead of a single entry
const CatalogName = "registry"

// File references a source file belonging to an item
type File struct {
	// Path is the file location relative to the files root
	Path string `json:"path"`

	// Type is the role of the file within the item (e.g. "registry:ui")
	Type string `json:"type,omitempty"`

	// Target is the suggested install location, if any
	Target string `json:"target,omitempty"`

	// Extra holds any additional fields from the catalog entry
	Extra map[string]json.RawMessage `json:"-"`
}

// Item is a catalog entry that has passed schema validation
type Item struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Files       []File `json:"files,omitempty"`

	// Extra holds any additional fields from the catalog entry
	Extra map[string]json.RawMessage `json:"-"`
}

// ResolvedFile is a File augmented with the file content
type ResolvedFile struct {
	File
	Content string `json:"content"`
}

// ResolvedItem is an Item whose files carry their content.
// It is the unit returned to callers asking for a single item.
type ResolvedItem struct {
	Item  *Item
	Files []ResolvedFile
}

var (
	fileKeys = []string{"path", "type", "target"}
	itemKeys = []string{"name", "type", "title", "description", "files"}
)

// UnmarshalJSON decodes a file reference, keeping unknown fields in Extra
func (f *File) UnmarshalJSON(data []byte) error {
	type plain File
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := collectExtra(data, fileKeys)
	if err != nil {
		return err
	}
	*f = File(p)
	f.Extra = extra
	return nil
}

// MarshalJSON encodes a file reference including its Extra fields
func (f File) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(f.fields(), f.Extra)
}

func (f File) fields() map[string]any {
	known := map[string]any{"path": f.Path}
	if f.Type != "" {
		known["type"] = f.Type
	}
	if f.Target != "" {
		known["target"] = f.Target
	}
	return known
}

// MarshalJSON encodes a resolved file including its content
func (f ResolvedFile) MarshalJSON() ([]byte, error) {
	known := f.File.fields()
	known["content"] = f.Content
	return marshalWithExtra(known, f.Extra)
}

// UnmarshalJSON decodes a resolved file, keeping unknown fields in Extra
func (f *ResolvedFile) UnmarshalJSON(data []byte) error {
	if err := f.File.UnmarshalJSON(data); err != nil {
		return err
	}
	var c struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	f.Content = c.Content
	delete(f.Extra, "content")
	if len(f.Extra) == 0 {
		f.Extra = nil
	}
	return nil
}

// UnmarshalJSON decodes an item, keeping unknown fields in Extra
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := collectExtra(data, itemKeys)
	if err != nil {
		return err
	}
	*i = Item(p)
	i.Extra = extra
	return nil
}

// MarshalJSON encodes an item including its Extra fields
func (i Item) MarshalJSON() ([]byte, error) {
	known := i.fields()
	if len(i.Files) > 0 {
		known["files"] = i.Files
	}
	return marshalWithExtra(known, i.Extra)
}

func (i Item) fields() map[string]any {
	known := map[string]any{"name": i.Name}
	if i.Type != "" {
		known["type"] = i.Type
	}
	if i.Title != "" {
		known["title"] = i.Title
	}
	if i.Description != "" {
		known["description"] = i.Description
	}
	return known
}

// HasFiles reports whether the item declares at least one file
func (i *Item) HasFiles() bool {
	return i != nil && len(i.Files) > 0
}

// NewResolvedItem pairs an item with the content of its files.
// The files must be in the same order as item.Files.
func NewResolvedItem(item *Item, files []ResolvedFile) (*ResolvedItem, error) {
	if item == nil {
		return nil, fmt.Errorf("item cannot be nil")
	}
	if len(files) != len(item.Files) {
		return nil, fmt.Errorf("item %s declares %d files, got %d resolved", item.Name, len(item.Files), len(files))
	}
	return &ResolvedItem{Item: item, Files: files}, nil
}

// Name returns the name of the resolved item
func (r *ResolvedItem) Name() string {
	if r == nil || r.Item == nil {
		return ""
	}
	return r.Item.Name
}

// MarshalJSON encodes the item with resolved files in place of file references
func (r ResolvedItem) MarshalJSON() ([]byte, error) {
	if r.Item == nil {
		return []byte("null"), nil
	}
	known := r.Item.fields()
	files := r.Files
	if files == nil {
		files = []ResolvedFile{}
	}
	known["files"] = files
	return marshalWithExtra(known, r.Item.Extra)
}

// collectExtra returns the top-level fields of data that are not in known
func collectExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// marshalWithExtra merges known fields over extra fields and encodes the result
func marshalWithExtra(known map[string]any, extra map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]any, len(known)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}
