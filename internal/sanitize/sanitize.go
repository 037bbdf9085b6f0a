// Package sanitize strips internal-only fields from sites and items before
// they are serialized into the staging directory.
package sanitize

import "git.home.luguber.info/inful/sitebuilder/internal/models"

// PublicSite is the site record exposed to themes through config.js.
type PublicSite struct {
	ID        string                 `json:"uuid"`
	Title     string                 `json:"title"`
	Theme     string                 `json:"theme"`
	URL       string                 `json:"url,omitempty"`
	Structure []models.StructureNode `json:"structure"`
	Vars      map[string]any         `json:"vars,omitempty"`
}

// PublicItem is the item record exposed to themes through items.js.
type PublicItem struct {
	ID       string         `json:"uuid"`
	Slug     string         `json:"slug"`
	Title    string         `json:"title"`
	Template string         `json:"template"`
	Vars     map[string]any `json:"vars,omitempty"`
}

// Site returns the public view of site. Hosting settings, HTML fragments and
// timestamps are dropped.
func Site(site *models.Site) PublicSite {
	if site == nil {
		return PublicSite{Structure: []models.StructureNode{}}
	}
	structure := site.Structure
	if structure == nil {
		structure = []models.StructureNode{}
	}
	return PublicSite{
		ID:        site.ID,
		Title:     site.Title,
		Theme:     site.Theme,
		URL:       site.URL,
		Structure: structure,
		Vars:      site.Vars,
	}
}

// Items returns the public view of every item, preserving order. The result
// is never nil so it always serializes as a JSON array.
func Items(items []*models.Item) []PublicItem {
	out := make([]PublicItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, PublicItem{
			ID:       it.ID,
			Slug:     it.Slug,
			Title:    it.Title,
			Template: it.Template,
			Vars:     it.Vars,
		})
	}
	return out
}
