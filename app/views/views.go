// Package views holds the HTML templates of the site, embedded in the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"inkpress/app/models"
)

//go:embed layout.html posts/*.html shared/*.html errors/*.html
var files embed.FS

// Page names accepted by Render.
const (
	Index    = "index"
	Show     = "show"
	NotFound = "not_found"
	Error    = "error"
)

var pages = map[string][]string{
	Index:    {"layout.html", "posts/index.html"},
	Show:     {"layout.html", "posts/show.html", "shared/comment_form.html", "shared/comments.html"},
	NotFound: {"layout.html", "errors/not_found.html"},
	Error:    {"layout.html", "errors/error.html"},
}

// IndexPage is the data of the home page.
type IndexPage struct {
	Posts []*models.Post
}

// PostPage is the data of a post page.
type PostPage struct {
	Post *models.Post
}

// ErrorPage is the data of the error pages.
type ErrorPage struct {
	Message string
}

// Helpers are the rendering hooks exposed to templates.
type Helpers struct {
	ImageURL func(models.Image) string
	RichText func([]models.Block) template.HTML
}

type Templates struct {
	pages map[string]*template.Template
}

// Load parses every page. Missing helpers fall back to defaults that render
// absolute image URLs only and no body.
func Load(h Helpers) (*Templates, error) {
	if h.ImageURL == nil {
		h.ImageURL = directImageURL
	}
	if h.RichText == nil {
		h.RichText = func([]models.Block) template.HTML { return "" }
	}

	funcs := template.FuncMap{
		"imageURL":   h.ImageURL,
		"richText":   h.RichText,
		"formatDate": formatDate,
	}

	t := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for name, patterns := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes the named page into a buffer so a failing template never
// leaves a half-written response.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	tmpl, ok := t.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func directImageURL(img models.Image) string {
	ref := img.Asset.Ref
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006 15:04 MST")
}
