// Package head renders the site head metadata (title, description and meta
// tags) served alongside the registry.
package head

import (
	"errors"
	"net/url"
	"strings"
	"sync"
)

// Site is the constant input the head is computed from
type Site struct {
	Title       string
	Description string
	URL         string
	Image       string
	ThemeColor  string
	Keywords    []string
	Twitter     string
}

// Tag is a single meta tag. Exactly one of Name and Property is set.
type Tag struct {
	Name     string `json:"name,omitempty"`
	Property string `json:"property,omitempty"`
	Content  string `json:"content"`
}

// Head is the rendered head metadata
type Head struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	Tags        []Tag  `json:"tags"`
}

// Generator computes the head once, on first use
type Generator struct {
	head func() (*Head, error)
}

// NewGenerator returns a Generator for site. Nothing is computed until Head is called.
func NewGenerator(site Site) *Generator {
	return &Generator{
		head: sync.OnceValues(func() (*Head, error) {
			return render(site)
		}),
	}
}

// Head returns the head metadata. Every call returns the same value.
func (g *Generator) Head() (*Head, error) {
	return g.head()
}

func render(site Site) (*Head, error) {
	if site.Title == "" {
		return nil, errors.New("site title is required")
	}

	h := &Head{
		Title:       site.Title,
		Description: site.Description,
	}

	var base *url.URL
	if site.URL != "" {
		u, err := url.Parse(site.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.New("site url must be an absolute URL")
		}
		base = u
		h.Canonical = u.String()
	}

	add := func(tag Tag) {
		if tag.Content != "" {
			h.Tags = append(h.Tags, tag)
		}
	}

	add(Tag{Name: "description", Content: site.Description})
	add(Tag{Name: "keywords", Content: strings.Join(site.Keywords, ",")})
	add(Tag{Name: "theme-color", Content: site.ThemeColor})

	add(Tag{Property: "og:type", Content: "website"})
	add(Tag{Property: "og:title", Content: site.Title})
	add(Tag{Property: "og:description", Content: site.Description})
	add(Tag{Property: "og:site_name", Content: site.Title})
	if base != nil {
		add(Tag{Property: "og:url", Content: base.String()})
	}

	image := site.Image
	if image != "" && base != nil {
		// Relative image paths are resolved against the site URL
		if ref, err := url.Parse(image); err == nil {
			image = base.ResolveReference(ref).String()
		}
	}
	add(Tag{Property: "og:image", Content: image})

	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	add(Tag{Name: "twitter:card", Content: card})
	add(Tag{Name: "twitter:title", Content: site.Title})
	add(Tag{Name: "twitter:description", Content: site.Description})
	add(Tag{Name: "twitter:image", Content: image})
	add(Tag{Name: "twitter:creator", Content: site.Twitter})

	return h, nil
}
