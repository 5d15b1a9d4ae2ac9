package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		include []string
		exclude []string
		item    string
		want    bool
	}{
		{name: "no patterns", item: "button", want: true},
		{name: "include match", include: []string{"button*"}, item: "button-group", want: true},
		{name: "include miss", include: []string{"button*"}, item: "card", want: false},
		{name: "exclude wins", include: []string{"*"}, exclude: []string{"*-demo"}, item: "card-demo", want: false},
		{name: "exclude only", exclude: []string{"chart-*"}, item: "card", want: true},
		{name: "star crosses slashes", include: []string{"@acme/*"}, item: "@acme/forms/input", want: true},
		{name: "alternatives", include: []string{"{button,card}"}, item: "card", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewNameFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(tt.item))
		})
	}
}

func TestNameFilterInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewNameFilter([]string{"[unterminated"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestIndexFilter(t *testing.T) {
	t.Parallel()

	idx, err := Parse([]byte(`[{"name":"button"},{"name":"card"},{"title":"nameless"},{"name":"button-demo"}]`), FormatJSON)
	require.NoError(t, err)

	f, err := NewNameFilter([]string{"button*"}, []string{"*-demo"})
	require.NoError(t, err)

	entries := idx.Filter(f)
	require.Len(t, entries, 1)
	assert.Equal(t, "button", entries[0].Name)

	var nilFilter *NameFilter
	assert.Len(t, idx.Filter(nilFilter), 4)
}
