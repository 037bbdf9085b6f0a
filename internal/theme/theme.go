// Package theme locates theme manifests and template files on disk.
//
// A theme is a directory under the configured themes root:
//
//	themes/
//	  dark/
//	    manifest.json   {"parser": "react"}   (comments and trailing commas allowed)
//	    post.js
//	    page.html
package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// ManifestFile is the manifest's file name inside a theme directory.
const ManifestFile = "manifest.json"

// ManifestSource looks up theme manifests. A nil manifest with a nil error
// means the theme has no manifest.
type ManifestSource interface {
	Manifest(ctx context.Context, theme string) (*models.ThemeManifest, error)
}

// TemplateSource reads template files by composite template id.
type TemplateSource interface {
	ReadTemplate(templateID, ext string) ([]byte, error)
}

// Dir is a ManifestSource and TemplateSource backed by a themes directory.
type Dir struct {
	root string
}

// NewDir returns a theme source rooted at root.
func NewDir(root string) *Dir { return &Dir{root: root} }

// Root returns the themes directory.
func (d *Dir) Root() string { return d.root }

// Manifest reads <root>/<theme>/manifest.json.
func (d *Dir) Manifest(_ context.Context, theme string) (*models.ThemeManifest, error) {
	dir, err := d.themeDir(theme)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) // #nosec G304 -- confined to the themes root
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest for theme %s: %w", theme, err)
	}
	return ParseManifest(theme, data)
}

// ParseManifest decodes a JSONC manifest. The parser field is required.
func ParseManifest(theme string, data []byte) (*models.ThemeManifest, error) {
	var m models.ThemeManifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parsing manifest for theme %s: %w", theme, err)
	}
	m.Parser = strings.TrimSpace(m.Parser)
	if m.Parser == "" {
		return nil, fmt.Errorf("manifest for theme %s: parser is required", theme)
	}
	if m.Name == "" {
		m.Name = theme
	}
	return &m, nil
}

// TemplateID joins a theme and template name into a composite id.
func TemplateID(theme, template string) string {
	return theme + "." + template
}

// SplitTemplateID splits "<theme>.<template>" at the first dot.
func SplitTemplateID(id string) (theme, template string, err error) {
	theme, template, ok := strings.Cut(id, ".")
	if !ok || theme == "" || template == "" {
		return "", "", fmt.Errorf("invalid template id %q", id)
	}
	return theme, template, nil
}

// TemplatePath returns the file holding templateID with the given extension.
func (d *Dir) TemplatePath(templateID, ext string) (string, error) {
	theme, template, err := SplitTemplateID(templateID)
	if err != nil {
		return "", err
	}
	dir, err := d.themeDir(theme)
	if err != nil {
		return "", err
	}
	if !validName(template) {
		return "", fmt.Errorf("invalid template name %q", template)
	}
	return filepath.Join(dir, template+ext), nil
}

// ReadTemplate returns the contents of the template file for templateID.
func (d *Dir) ReadTemplate(templateID, ext string) ([]byte, error) {
	path, err := d.TemplatePath(templateID, ext)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- confined to the themes root
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", templateID, err)
	}
	return data, nil
}

func (d *Dir) themeDir(theme string) (string, error) {
	if !validName(theme) {
		return "", fmt.Errorf("invalid theme name %q", theme)
	}
	return filepath.Join(d.root, theme), nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
