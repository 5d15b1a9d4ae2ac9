package head

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagContent(h *Head, key string) (string, bool) {
	for _, tag := range h.Tags {
		if tag.Name == key || tag.Property == key {
			return tag.Content, true
		}
	}
	return "", false
}

func TestHead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		site     Site
		wantErr  string
		wantTags map[string]string
		absent   []string
	}{
		{
			name: "full site",
			site: Site{
				Title:       "Acme UI",
				Description: "Accessible components",
				URL:         "https://ui.acme.dev/",
				Image:       "/og.png",
				ThemeColor:  "#09090b",
				Keywords:    []string{"react", "tailwind"},
				Twitter:     "@acme",
			},
			wantTags: map[string]string{
				"description":     "Accessible components",
				"keywords":        "react,tailwind",
				"theme-color":     "#09090b",
				"og:title":        "Acme UI",
				"og:url":          "https://ui.acme.dev/",
				"og:image":        "https://ui.acme.dev/og.png",
				"twitter:card":    "summary_large_image",
				"twitter:creator": "@acme",
			},
		},
		{
			name: "title only",
			site: Site{Title: "Acme UI"},
			wantTags: map[string]string{
				"og:title":     "Acme UI",
				"og:type":      "website",
				"twitter:card": "summary",
			},
			absent: []string{"description", "keywords", "og:url", "og:image", "twitter:image"},
		},
		{
			name:    "missing title",
			site:    Site{Description: "untitled"},
			wantErr: "site title is required",
		},
		{
			name:    "relative site url",
			site:    Site{Title: "Acme UI", URL: "ui.acme.dev"},
			wantErr: "absolute URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := NewGenerator(tt.site).Head()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.site.Title, h.Title)

			for key, want := range tt.wantTags {
				got, ok := tagContent(h, key)
				assert.True(t, ok, "missing tag %s", key)
				assert.Equal(t, want, got, key)
			}
			for _, key := range tt.absent {
				_, ok := tagContent(h, key)
				assert.False(t, ok, "unexpected tag %s", key)
			}
		})
	}
}

func TestHeadIsComputedOnce(t *testing.T) {
	t.Parallel()

	g := NewGenerator(Site{Title: "Acme UI"})

	const n = 16
	results := make([]*Head, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := g.Head()
			assert.NoError(t, err)
			results[i] = h
		}()
	}
	wg.Wait()

	for _, h := range results {
		assert.Same(t, results[0], h)
	}
}

func TestHeadErrorIsMemoized(t *testing.T) {
	t.Parallel()

	g := NewGenerator(Site{})
	_, err1 := g.Head()
	_, err2 := g.Head()
	require.Error(t, err1)
	assert.Same(t, err1, err2)
}
