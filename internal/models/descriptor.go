package models

// Descriptor is the self-contained render request for one item ("buffer
// item"). Descriptors are rebuilt on every build and never persisted.
type Descriptor struct {
	// Path is the output directory relative to the staging root, always
	// starting with "/". The root item renders to "/".
	Path string `json:"path"`
	// TemplateID is "<theme>.<template>".
	TemplateID string `json:"templateId"`
	Parser     string `json:"parser"`
	Item       *Item  `json:"item"`
	Site       *Site  `json:"site"`
	// RootPath holds one "../" per output path segment so themes can link
	// site-relative assets without absolute URLs.
	RootPath    string         `json:"rootPath"`
	Vars        map[string]any `json:"vars"`
	HeadHTML    string         `json:"headHtml"`
	FooterHTML  string         `json:"footerHtml"`
	SidebarHTML string         `json:"sidebarHtml"`
	// StructurePath is the id chain from the root structure node to this item
	// (inclusive).
	StructurePath []string `json:"-"`
}

// ItemID returns the id of the descriptor's item, or "" when unset.
func (d *Descriptor) ItemID() string {
	if d == nil || d.Item == nil {
		return ""
	}
	return d.Item.ID
}

// AncestorIDs returns the structure ids above the item, root first.
func (d *Descriptor) AncestorIDs() []string {
	if len(d.StructurePath) <= 1 {
		return nil
	}
	return d.StructurePath[:len(d.StructurePath)-1]
}

// OutputFile is one file produced by a render handler, relative to the
// descriptor's output directory.
type OutputFile struct {
	Path    string
	Name    string
	Content []byte
}
