package catalog

import (
	"fmt"

	"github.com/gobwas/glob"
)

// NameFilter selects entries by glob patterns on their name.
// Exclude patterns take precedence; with no include patterns every
// entry not excluded is selected.
type NameFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewNameFilter compiles the include and exclude patterns.
// Patterns use no separators, so * matches across "/" in scoped names.
func NewNameFilter(include, exclude []string) (*NameFilter, error) {
	f := &NameFilter{}
	var err error
	if f.include, err = compilePatterns("include", include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns("exclude", exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(kind string, patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern '%s': %w", kind, p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Match reports whether name is selected
func (f *NameFilter) Match(name string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Filter returns the entries whose name the filter selects, in catalog order
func (i *Index) Filter(f *NameFilter) []Entry {
	var out []Entry
	for _, e := range i.Entries() {
		if f.Match(e.Name) {
			out = append(out, e)
		}
	}
	return out
}
