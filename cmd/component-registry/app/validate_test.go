package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/component-registry-server/internal/catalog"
	"github.com/stacklok/component-registry-server/internal/registry"
	"github.com/stacklok/component-registry-server/internal/resolver"
	"github.com/stacklok/component-registry-server/internal/validators"
)

func testCatalog(t *testing.T) (*catalog.Index, fstest.MapFS) {
	t.Helper()

	cat := registry.NewTestCatalog(registry.WithItems(
		registry.NewTestItem("button", registry.WithFile("ui/button.tsx", "button")),
		registry.NewTestItem("theme"),
		registry.NewTestItem("broken", registry.WithField("files", "ui/broken.tsx")),
		registry.NewTestItem("orphan", registry.WithFileRef("ui/missing.tsx")),
	))
	fsys := cat.FS("registry.json")

	idx, err := catalog.NewFSLoader(fsys, "registry.json").Load(context.Background())
	require.NoError(t, err)
	return idx, fsys
}

func TestCheckCatalog(t *testing.T) {
	t.Parallel()

	idx, fsys := testCatalog(t)
	validator := validators.NewItemValidator()
	res := resolver.NewFileResolver(fsys)

	tests := []struct {
		name       string
		names      []string
		include    []string
		wantStatus map[string]string
		wantFailed int
	}{
		{
			name: "all entries",
			wantStatus: map[string]string{
				"button": statusOK,
				"theme":  statusNoFiles,
				"broken": statusInvalid,
				"orphan": statusReadError,
			},
			wantFailed: 2,
		},
		{
			name:       "named entries",
			names:      []string{"button", "does-not-exist"},
			wantStatus: map[string]string{"button": statusOK, "does-not-exist": statusNotFound},
			wantFailed: 1,
		},
		{
			name:       "filtered entries",
			include:    []string{"b*"},
			wantStatus: map[string]string{"button": statusOK, "broken": statusInvalid},
			wantFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := catalog.NewNameFilter(tt.include, nil)
			require.NoError(t, err)

			results := checkCatalog(context.Background(), idx, validator, res, tt.names, filter)
			require.Len(t, results, len(tt.wantStatus))

			failed := 0
			for _, r := range results {
				assert.Equal(t, tt.wantStatus[r.Name], r.Status, r.Name)
				if r.failed() {
					failed++
					assert.NotEmpty(t, r.Detail, r.Name)
				}
			}
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestRenderResults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := renderResults(&buf, []checkResult{
		{Name: "button", Status: statusOK, Files: 2},
		{Name: "orphan", Status: statusReadError, Files: 1, Detail: "file does not exist"},
	})
	require.NoError(t, err)

	out := strings.ToLower(buf.String())
	for _, want := range []string{"name", "status", "button", "orphan", "read error", "file does not exist"} {
		assert.Contains(t, out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "text", args: nil, want: "component-registry "},
		{name: "json", args: []string{"--format", "json"}, want: `"go_version"`},
		{name: "unsupported format", args: []string{"--format", "toml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := newVersionCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
