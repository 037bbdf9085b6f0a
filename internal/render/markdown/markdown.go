// Package markdown renders an item's Markdown content into the theme's
// html/template layout.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/render/minify"
	"git.home.luguber.info/inful/sitebuilder/internal/sanitize"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Parser is the manifest parser name served by this handler.
const Parser = "markdown"

// TemplateExt is the layout file extension inside a theme directory.
const TemplateExt = ".html"

// Page is the data handed to a layout.
type Page struct {
	Title       string
	Path        string
	RootPath    string
	Site        sanitize.PublicSite
	Item        *models.Item
	Vars        map[string]any
	Content     template.HTML
	HeadHTML    template.HTML
	FooterHTML  template.HTML
	SidebarHTML template.HTML
}

// Handler implements render.Handler.
type Handler struct {
	templates theme.TemplateSource
	md        goldmark.Markdown
}

var _ render.Handler = (*Handler)(nil)

// New returns a handler loading layouts from src.
func New(src theme.TemplateSource) *Handler {
	return &Handler{
		templates: src,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (h *Handler) Render(_ context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error) {
	src, err := h.templates.ReadTemplate(templateID, TemplateExt)
	if err != nil {
		return nil, err
	}
	layout, err := template.New(templateID).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing layout %s: %w", templateID, err)
	}

	page := Page{
		Path:     d.Path,
		RootPath: d.RootPath,
		Site:     sanitize.Site(d.Site),
		Item:     d.Item,
		Vars:     d.Vars,
		// Fragments are authored HTML and are trusted.
		HeadHTML:    template.HTML(d.HeadHTML),    // #nosec G203
		FooterHTML:  template.HTML(d.FooterHTML),  // #nosec G203
		SidebarHTML: template.HTML(d.SidebarHTML), // #nosec G203
	}
	if d.Item != nil {
		page.Title = d.Item.Title
		var body bytes.Buffer
		if err := h.md.Convert([]byte(d.Item.Content), &body); err != nil {
			return nil, fmt.Errorf("converting markdown for %s: %w", d.ItemID(), err)
		}
		page.Content = template.HTML(body.String()) // #nosec G203 -- goldmark output, raw HTML disabled
	}

	var out bytes.Buffer
	if err := layout.Execute(&out, page); err != nil {
		return nil, fmt.Errorf("executing layout %s: %w", templateID, err)
	}
	minified, err := minify.HTML(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minifying page for %s: %w", d.ItemID(), err)
	}
	return []models.OutputFile{{Name: "index.html", Content: minified}}, nil
}
