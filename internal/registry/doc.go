// Package registry provides test utilities for building component catalogs
// in a consistent, maintainable way.
//
// The builders follow the options pattern and produce catalog documents and
// matching file trees, so tests across packages exercise the same catalog
// conventions without hand-written JSON:
//
//	files := fstest.MapFS{}
//	catalog := registry.NewTestCatalog(
//	    registry.WithItems(
//	        registry.NewTestItem("button",
//	            registry.WithType("registry:ui"),
//	            registry.WithFile("ui/button.tsx", "export function Button() {}"),
//	        ),
//	    ),
//	)
//	data := catalog.JSON(t)
//	catalog.WriteFiles(files)
//
// # Catalog Builder Options
//
//   - WithItems: Add one or more items to the catalog
//   - WithEnvelope: Emit the catalog as an object with an "items" array
//
// # Item Builder Options
//
//   - WithType: Set the item type
//   - WithDescription: Set the item description
//   - WithFile: Add a file reference together with its content
//   - WithFileRef: Add a file reference without content
//   - WithField: Add an arbitrary top-level field
package registry
