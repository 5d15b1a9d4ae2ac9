// Package validators provides schema validation for registry catalog entries.
package validators

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stacklok/component-registry-server/pkg/registry"
)

//go:embed schema/item.schema.json
var itemSchemaBytes []byte

const itemSchemaURL = "item.schema.json"

// ErrInvalidItem is returned when a catalog entry does not match the item schema
var ErrInvalidItem = errors.New("invalid registry item")

var (
	compiledItemSchema *jsonschema.Schema
	compileItemOnce    sync.Once
	compileItemErr     error
	printer            = message.NewPrinter(language.English)
)

// Issue is a single schema violation
type Issue struct {
	Path    string `json:"path"`    // Instance location (e.g., "/files/0/path")
	Message string `json:"message"` // Human-readable error message
	Keyword string `json:"keyword"` // Schema keyword that failed
}

// InvalidItemError describes why a catalog entry failed validation
type InvalidItemError struct {
	Name   string
	Issues []Issue
}

// Error implements error
func (e *InvalidItemError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s %s", ErrInvalidItem, name)
	}

	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return fmt.Sprintf("%s %s: %s", ErrInvalidItem, name, strings.Join(parts, "; "))
}

// Is makes InvalidItemError match ErrInvalidItem
func (*InvalidItemError) Is(target error) bool {
	return target == ErrInvalidItem
}

// ItemValidator validates raw catalog entries
type ItemValidator interface {
	// ValidateItem checks entry against the item schema and decodes it.
	// Schema violations are returned as *InvalidItemError.
	ValidateItem(entry json.RawMessage) (*registry.Item, error)
}

type schemaItemValidator struct{}

// NewItemValidator creates a validator backed by the embedded item schema
func NewItemValidator() ItemValidator {
	return &schemaItemValidator{}
}

// getItemSchema compiles the embedded item schema once and returns it
func getItemSchema() (*jsonschema.Schema, error) {
	compileItemOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(itemSchemaBytes))
		if err != nil {
			compileItemErr = fmt.Errorf("unmarshaling item schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(itemSchemaURL, doc); err != nil {
			compileItemErr = fmt.Errorf("adding item schema resource: %w", err)
			return
		}
		compiledItemSchema, compileItemErr = c.Compile(itemSchemaURL)
		if compileItemErr != nil {
			compileItemErr = fmt.Errorf("compiling item schema: %w", compileItemErr)
		}
	})
	return compiledItemSchema, compileItemErr
}

// ValidateItem implements ItemValidator.ValidateItem
func (*schemaItemValidator) ValidateItem(entry json.RawMessage) (*registry.Item, error) {
	name := gjson.GetBytes(entry, "name").String()

	schema, err := getItemSchema()
	if err != nil {
		return nil, fmt.Errorf("loading item schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(entry))
	if err != nil {
		return nil, &InvalidItemError{
			Name:   name,
			Issues: []Issue{{Message: "entry is not valid JSON"}},
		}
	}

	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("unexpected validation error type: %w", err)
		}
		return nil, &InvalidItemError{Name: name, Issues: extractIssues(ve)}
	}

	var item registry.Item
	if err := json.Unmarshal(entry, &item); err != nil {
		return nil, &InvalidItemError{
			Name:   name,
			Issues: []Issue{{Message: err.Error()}},
		}
	}

	return &item, nil
}

// extractIssues walks the ValidationError tree and returns leaf-level issues
func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)

	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}
	return deduplicateIssues(issues)
}

// collectIssues recursively walks the error tree to find leaf errors
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword := ""
	msg := ""
	if ve.ErrorKind != nil {
		if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
			keyword = kwPath[len(kwPath)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	// Container keywords only repeat their causes
	if keyword == "allOf" || keyword == "$ref" || keyword == "" {
		return
	}

	*issues = append(*issues, Issue{
		Path:    path,
		Message: msg,
		Keyword: keyword,
	})
}

// deduplicateIssues removes duplicate issues (same path + keyword + message)
func deduplicateIssues(issues []Issue) []Issue {
	seen := make(map[string]bool, len(issues))
	result := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}
