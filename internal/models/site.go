// Package models holds the data shapes shared by the build pipeline: the
// stored site and its items, theme manifests, and the ephemeral render
// descriptors and output files produced during a build.
package models

import "time"

// Site is the aggregate root loaded once per build. It is treated as
// immutable for the duration of a build.
type Site struct {
	ID          string          `json:"uuid" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Theme       string          `json:"theme" yaml:"theme"`
	URL         string          `json:"url,omitempty" yaml:"url,omitempty"`
	Structure   []StructureNode `json:"structure" yaml:"structure"`
	Vars        map[string]any  `json:"vars,omitempty" yaml:"vars,omitempty"`
	HeadHTML    string          `json:"headHtml,omitempty" yaml:"headHtml,omitempty"`
	FooterHTML  string          `json:"footerHtml,omitempty" yaml:"footerHtml,omitempty"`
	SidebarHTML string          `json:"sidebarHtml,omitempty" yaml:"sidebarHtml,omitempty"`
	Hosting     *Hosting        `json:"hosting,omitempty" yaml:"hosting,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`
}

// Hosting carries internal publishing settings. It never leaves the process:
// sanitizers strip it before anything is written to staging.
type Hosting struct {
	Name          string `json:"name" yaml:"name"`
	CredentialRef string `json:"credentialRef,omitempty" yaml:"credentialRef,omitempty"`
}

// StructureNode references an item by id. Sibling order is significant.
type StructureNode struct {
	Key      string          `json:"key" yaml:"key"`
	Children []StructureNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Item is a single content unit (a "post").
type Item struct {
	ID            string         `json:"uuid" yaml:"id"`
	SiteID        string         `json:"siteId" yaml:"siteId"`
	Slug          string         `json:"slug" yaml:"slug"`
	Title         string         `json:"title" yaml:"title"`
	Template      string         `json:"template" yaml:"template"`
	Content       string         `json:"content,omitempty" yaml:"content,omitempty"`
	Vars          map[string]any `json:"vars,omitempty" yaml:"vars,omitempty"`
	HeadHTML      string         `json:"headHtml,omitempty" yaml:"headHtml,omitempty"`
	FooterHTML    string         `json:"footerHtml,omitempty" yaml:"footerHtml,omitempty"`
	SidebarHTML   string         `json:"sidebarHtml,omitempty" yaml:"sidebarHtml,omitempty"`
	ExclusiveVars []string       `json:"exclusiveVars,omitempty" yaml:"exclusiveVars,omitempty"`
	CreatedAt     time.Time      `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`
}

// ThemeManifest declares which parser (render engine) a theme requires.
type ThemeManifest struct {
	Name    string `json:"name"`
	Parser  string `json:"parser"`
	Version string `json:"version,omitempty"`
}
