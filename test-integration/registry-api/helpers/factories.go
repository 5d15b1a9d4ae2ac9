package helpers

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// ComponentFixture is a catalog entry together with the files written for it
type ComponentFixture struct {
	Name  string
	Type  string
	Files map[string]string

	// MissingFiles are referenced by the entry but never written
	MissingFiles []string

	// Raw, when set, is written as the entry verbatim
	Raw map[string]any
}

// CreateDefaultComponents returns the fixtures used by most specs
func CreateDefaultComponents() []ComponentFixture {
	return []ComponentFixture{
		{
			Name: "button",
			Type: "registry:ui",
			Files: map[string]string{
				"ui/button.tsx": "export function Button() { return <button /> }",
			},
		},
		{
			Name: "card",
			Type: "registry:ui",
			Files: map[string]string{
				"ui/card.tsx":        "export function Card() {}",
				"ui/card-header.tsx": "export function CardHeader() {}",
			},
		},
		{Name: "theme", Type: "registry:theme"},
		{Name: "orphan", Type: "registry:ui", MissingFiles: []string{"ui/orphan.tsx"}},
		{Raw: map[string]any{"name": "broken", "files": "ui/broken.tsx"}},
	}
}

func (c ComponentFixture) entry() map[string]any {
	if c.Raw != nil {
		return c.Raw
	}
	entry := map[string]any{"name": c.Name, "type": c.Type}

	// Sorted so the file order is stable across runs
	var files []map[string]any
	for _, path := range slices.Sorted(maps.Keys(c.Files)) {
		files = append(files, map[string]any{"path": path, "type": c.Type})
	}
	for _, path := range c.MissingFiles {
		files = append(files, map[string]any{"path": path, "type": c.Type})
	}
	if len(files) > 0 {
		entry["files"] = files
	}
	return entry
}

// WriteCatalog writes registry.json plus every fixture file under dir and
// returns the catalog path
func WriteCatalog(dir string, components []ComponentFixture) string {
	entries := make([]map[string]any, 0, len(components))
	for _, c := range components {
		entries = append(entries, c.entry())
		for path, content := range c.Files {
			full := filepath.Join(dir, filepath.FromSlash(path))
			must(os.MkdirAll(filepath.Dir(full), 0750))
			must(os.WriteFile(full, []byte(content), 0600))
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	must(err)

	catalogPath := filepath.Join(dir, "registry.json")
	must(os.WriteFile(catalogPath, data, 0600))
	return catalogPath
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("fixture setup failed: %v", err))
	}
}
