// Package catalog loads the static component catalog served by the registry.
//
// The catalog is an externally supplied, pre-built index mapping item names to
// their metadata and file references. It is read-only: every Load reads the
// source again and returns a fresh Index, and nothing in this package mutates
// an Index after it has been parsed.
//
// Architecture:
//   - Loader: Interface for retrieving the catalog from a source
//   - Index: Parsed catalog keeping the verbatim document and addressable entries
//   - Format: Encoding of the catalog document, inferred from the file extension
//
// Current implementations:
//   - fileLoader: Reads the catalog from the local filesystem
//   - fsLoader: Reads the catalog from an fs.FS, e.g. an embedded catalog
//
// Supported encodings are JSON (comments and trailing commas are tolerated) and
// YAML. The top-level document is either an array of entries or an object with
// an "items" array.
package catalog
