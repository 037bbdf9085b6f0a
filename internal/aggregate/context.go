package aggregate

import "git.home.luguber.info/inful/sitebuilder/internal/models"

// Context is the fully merged render context of one item.
type Context struct {
	Vars        map[string]any
	HeadHTML    string
	FooterHTML  string
	SidebarHTML string
}

// Resolve computes site ⊕ ancestors ⊕ item for every inheritable property.
//
// Names listed in item.ExclusiveVars are dropped from the ancestor aggregate
// before it is merged. Site vars are not filtered, and the item's own value
// always applies.
func Resolve(site *models.Site, item *models.Item, ancestorIDs []string, items map[string]*models.Item) Context {
	if site == nil {
		site = &models.Site{}
	}
	if item == nil {
		item = &models.Item{}
	}

	ancestors := AggregateVars(ancestorIDs, items)
	for _, name := range item.ExclusiveVars {
		if name != "" {
			delete(ancestors, name)
		}
	}

	return Context{
		Vars:        asMap(Merge(site.Vars, ancestors, item.Vars)),
		HeadHTML:    site.HeadHTML + AggregateFragment(HeadHTML, ancestorIDs, items) + item.HeadHTML,
		FooterHTML:  site.FooterHTML + AggregateFragment(FooterHTML, ancestorIDs, items) + item.FooterHTML,
		SidebarHTML: site.SidebarHTML + AggregateFragment(SidebarHTML, ancestorIDs, items) + item.SidebarHTML,
	}
}
