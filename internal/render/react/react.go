// Package react renders descriptors for themes whose templates are React
// components. Each item gets an index.html loader and an index.js bundle
// that mounts the theme's component with the descriptor as props.
package react

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/render/minify"
	"git.home.luguber.info/inful/sitebuilder/internal/sanitize"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Parser is the manifest parser name served by this handler.
const Parser = "react"

// TemplateExt is the template file extension inside a theme directory.
const TemplateExt = ".js"

const (
	DefaultReactURL    = "https://unpkg.com/react@16/umd/react.production.min.js"
	DefaultReactDOMURL = "https://unpkg.com/react-dom@16/umd/react-dom.production.min.js"
)

// Handler implements render.Handler.
type Handler struct {
	templates   theme.TemplateSource
	reactURL    string
	reactDOMURL string
}

var _ render.Handler = (*Handler)(nil)

// New returns a handler loading templates from src.
func New(src theme.TemplateSource) *Handler {
	return &Handler{templates: src, reactURL: DefaultReactURL, reactDOMURL: DefaultReactDOMURL}
}

// WithScripts overrides the React and ReactDOM script URLs.
func (h *Handler) WithScripts(reactURL, reactDOMURL string) *Handler {
	h.reactURL, h.reactDOMURL = reactURL, reactDOMURL
	return h
}

// props is what the component receives. The site is sanitized so internal
// settings never reach the browser.
type props struct {
	Path        string              `json:"path"`
	TemplateID  string              `json:"templateId"`
	Parser      string              `json:"parser"`
	Item        *models.Item        `json:"item"`
	Site        sanitize.PublicSite `json:"site"`
	RootPath    string              `json:"rootPath"`
	Vars        map[string]any      `json:"vars"`
	HeadHTML    string              `json:"headHtml"`
	FooterHTML  string              `json:"footerHtml"`
	SidebarHTML string              `json:"sidebarHtml"`
}

func (h *Handler) Render(_ context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error) {
	templateJS, err := h.templates.ReadTemplate(templateID, TemplateExt)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(props{
		Path:        d.Path,
		TemplateID:  d.TemplateID,
		Parser:      d.Parser,
		Item:        d.Item,
		Site:        sanitize.Site(d.Site),
		RootPath:    d.RootPath,
		Vars:        d.Vars,
		HeadHTML:    d.HeadHTML,
		FooterHTML:  d.FooterHTML,
		SidebarHTML: d.SidebarHTML,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding props for %s: %w", d.ItemID(), err)
	}

	page, err := minify.HTML(h.page(d))
	if err != nil {
		return nil, fmt.Errorf("minifying page for %s: %w", d.ItemID(), err)
	}

	code, err := minify.JS(string(templateJS))
	if err != nil {
		return nil, fmt.Errorf("minifying template %s: %w", templateID, err)
	}
	// The props are compact JSON already and are appended verbatim.
	js := code + ";\n" +
		"var PRSSElement=React.createElement(PRSSComponent.default," + string(data) + ");\n" +
		`ReactDOM.render(PRSSElement,document.getElementById("root"));`

	return []models.OutputFile{
		{Name: "index.html", Content: page},
		{Name: "index.js", Content: []byte(js)},
	}, nil
}

func (h *Handler) page(d *models.Descriptor) []byte {
	title := ""
	if d.Site != nil {
		title = d.Site.Title
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<title>%s</title>
	</head>
	<body>
		<div id="root"></div>
		<script crossorigin src="%s"></script>
		<script crossorigin src="%s"></script>
		<script src="index.js"></script>
	</body>
</html>`, html.EscapeString(title), html.EscapeString(h.reactURL), html.EscapeString(h.reactDOMURL))
	return b.Bytes()
}
