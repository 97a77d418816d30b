// Package richtext renders structured post bodies (blocks of styled spans
// with mark annotations) to HTML.
package richtext

import (
	"html/template"
	"net/url"
	"strings"

	"inkpress/app/models"

	log "github.com/sirupsen/logrus"
)

// AssetResolver maps an image asset reference to a URL.
type AssetResolver interface {
	AssetURL(ref string) string
}

// Block style openers. h1, h2 and normal paragraphs carry the site's own
// classes; the rest are plain defaults.
var styleTags = map[string]string{
	"h1":         `<h1 class="text-2xl font-bold my-5">`,
	"h2":         `<h2 class="text-xl font-bold my-5">`,
	"h3":         `<h3>`,
	"h4":         `<h4>`,
	"h5":         `<h5>`,
	"h6":         `<h6>`,
	"blockquote": `<blockquote>`,
	"normal":     `<p class="mt-5">`,
}

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "del",
}

const (
	listItemOpen = `<li class="ml-4 list-disc">`
	linkClass    = "text-blue-500 hover:underline"
)

// Renderer turns post bodies into HTML.
type Renderer struct {
	assets AssetResolver
}

// NewRenderer returns a renderer; assets may be nil, in which case image
// blocks are skipped.
func NewRenderer(assets AssetResolver) *Renderer {
	return &Renderer{assets: assets}
}

// Render converts blocks to HTML. Consecutive list items are grouped into
// ul/ol elements, nesting by level.
func (r *Renderer) Render(blocks []models.Block) template.HTML {
	var sb strings.Builder
	var lists []string

	for _, b := range blocks {
		if b.Type == "block" && b.ListItem != "" {
			lists = r.writeListItem(&sb, lists, b)
			continue
		}
		lists = closeLists(&sb, lists, 0)

		switch b.Type {
		case "block":
			r.writeBlock(&sb, b)
		case "image":
			r.writeImage(&sb, b)
		default:
			log.Debugf("[richtext] skipping block %q of unknown type %q", b.Key, b.Type)
		}
	}
	closeLists(&sb, lists, 0)

	return template.HTML(sb.String())
}

func (r *Renderer) writeBlock(sb *strings.Builder, b models.Block) {
	open, ok := styleTags[b.Style]
	if !ok {
		if b.Style != "" {
			log.Debugf("[richtext] unknown block style %q, rendering as paragraph", b.Style)
		}
		open = styleTags["normal"]
	}
	sb.WriteString(open)
	writeSpans(sb, b)
	sb.WriteString(closeTag(open))
}

func (r *Renderer) writeImage(sb *strings.Builder, b models.Block) {
	if r.assets == nil || b.Asset == nil {
		return
	}
	src := r.assets.AssetURL(b.Asset.Ref)
	if src == "" {
		return
	}
	sb.WriteString(`<img class="my-5" src="`)
	sb.WriteString(template.HTMLEscapeString(src))
	sb.WriteString(`" alt="`)
	sb.WriteString(template.HTMLEscapeString(b.Alt))
	sb.WriteString(`"/>`)
}

// writeListItem emits b as an item of the list stack and returns the new
// stack. Every open level has an unclosed <li>.
func (r *Renderer) writeListItem(sb *strings.Builder, lists []string, b models.Block) []string {
	tag := "ul"
	if b.ListItem == "number" {
		tag = "ol"
	}
	level := b.Level
	if level < 1 {
		level = 1
	}
	if level > len(lists)+1 {
		level = len(lists) + 1
	}

	lists = closeLists(sb, lists, level)
	if len(lists) == level && lists[level-1] != tag {
		lists = closeLists(sb, lists, level-1)
	}

	if len(lists) == level {
		sb.WriteString("</li>")
	} else {
		sb.WriteString("<" + tag + ">")
		lists = append(lists, tag)
	}

	sb.WriteString(listItemOpen)
	writeSpans(sb, b)
	return lists
}

func closeLists(sb *strings.Builder, lists []string, depth int) []string {
	for len(lists) > depth {
		sb.WriteString("</li></" + lists[len(lists)-1] + ">")
		lists = lists[:len(lists)-1]
	}
	return lists
}

func writeSpans(sb *strings.Builder, b models.Block) {
	for _, span := range b.Children {
		if span.Type != "" && span.Type != "span" {
			log.Debugf("[richtext] skipping inline %q", span.Type)
			continue
		}

		closers := make([]string, 0, len(span.Marks))
		for _, mark := range span.Marks {
			open, close := markTags(b, mark)
			if open == "" {
				continue
			}
			sb.WriteString(open)
			closers = append(closers, close)
		}

		text := template.HTMLEscapeString(span.Text)
		sb.WriteString(strings.ReplaceAll(text, "\n", "<br/>"))

		for i := len(closers) - 1; i >= 0; i-- {
			sb.WriteString(closers[i])
		}
	}
}

func markTags(b models.Block, mark string) (string, string) {
	if tag, ok := decorators[mark]; ok {
		return "<" + tag + ">", "</" + tag + ">"
	}

	def, ok := b.MarkDef(mark)
	if !ok {
		log.Debugf("[richtext] mark %q has no definition", mark)
		return "", ""
	}
	switch def.Type {
	case "link":
		if !safeURL(def.Href) {
			log.Debugf("[richtext] dropping link with unsafe href %q", def.Href)
			return "", ""
		}
		return `<a href="` + template.HTMLEscapeString(def.Href) + `" class="` + linkClass + `">`, "</a>"
	default:
		log.Debugf("[richtext] unknown annotation %q", def.Type)
		return "", ""
	}
}

func safeURL(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	}
	return false
}

// closeTag derives "</h1>" from `<h1 class="...">`.
func closeTag(open string) string {
	name := strings.TrimPrefix(open, "<")
	if i := strings.IndexAny(name, " >"); i >= 0 {
		name = name[:i]
	}
	return "</" + name + ">"
}
