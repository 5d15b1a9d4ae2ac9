package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

// ErrCatalogUnavailable is returned when the catalog cannot be loaded or parsed
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Format is the encoding of a catalog document
type Format string

const (
	// FormatJSON is JSON, optionally with comments and trailing commas
	FormatJSON Format = "json"

	// FormatYAML is YAML
	FormatYAML Format = "yaml"
)

// itemsKey is the array holding entries when the catalog is an object
const itemsKey = "items"

// FormatFromPath infers the catalog format from a file name
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Entry is a single catalog entry as it is stored at rest
type Entry struct {
	// Name is the unique item name, empty when the entry has no string name
	Name string

	// Raw is the entry's JSON document
	Raw json.RawMessage
}

// Index is a parsed catalog
type Index struct {
	raw     json.RawMessage
	entries []Entry
	byName  map[string]int
}

// Parse builds an Index from a catalog document
func Parse(data []byte, format Format) (*Index, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: catalog is not valid JSON", ErrCatalogUnavailable)
	}

	root := gjson.ParseBytes(doc)
	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.IsObject() && root.Get(itemsKey).IsArray():
		list = root.Get(itemsKey)
	default:
		return nil, fmt.Errorf("%w: catalog must be an array or an object with an %q array",
			ErrCatalogUnavailable, itemsKey)
	}

	elems := list.Array()
	idx := &Index{
		raw:     json.RawMessage(doc),
		entries: make([]Entry, 0, len(elems)),
		byName:  make(map[string]int, len(elems)),
	}

	for i, elem := range elems {
		entry := Entry{Raw: json.RawMessage(elem.Raw)}
		if name := elem.Get("name"); name.Type == gjson.String && name.Str != "" {
			entry.Name = name.Str
			if prev, exists := idx.byName[entry.Name]; exists {
				return nil, fmt.Errorf("%w: duplicate item name %q at entries %d and %d",
					ErrCatalogUnavailable, entry.Name, prev, i)
			}
			idx.byName[entry.Name] = len(idx.entries)
		}
		idx.entries = append(idx.entries, entry)
	}

	return idx, nil
}

// toJSON converts a catalog document to standard JSON
func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		doc, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse YAML catalog: %w", ErrCatalogUnavailable, err)
		}
		return doc, nil
	case FormatJSON, "":
		doc, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse JSON catalog: %w", ErrCatalogUnavailable, err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("%w: unsupported catalog format %q", ErrCatalogUnavailable, format)
	}
}

// Raw returns the catalog document as loaded
func (i *Index) Raw() json.RawMessage {
	return i.raw
}

// MarshalJSON encodes the catalog document unmodified
func (i *Index) MarshalJSON() ([]byte, error) {
	if i == nil || i.raw == nil {
		return []byte("null"), nil
	}
	return i.raw, nil
}

// Lookup returns the entry with exactly the given name
func (i *Index) Lookup(name string) (Entry, bool) {
	if i == nil || name == "" {
		return Entry{}, false
	}
	pos, ok := i.byName[name]
	if !ok {
		return Entry{}, false
	}
	return i.entries[pos], true
}

// Entries returns all entries in catalog order
func (i *Index) Entries() []Entry {
	if i == nil {
		return nil
	}
	out := make([]Entry, len(i.entries))
	copy(out, i.entries)
	return out
}

// Names returns the names of all addressable entries in catalog order
func (i *Index) Names() []string {
	if i == nil {
		return nil
	}
	names := make([]string, 0, len(i.byName))
	for _, e := range i.entries {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names
}

// Len returns the number of entries in the catalog
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}
