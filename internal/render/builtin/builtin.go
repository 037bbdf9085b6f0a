// Package builtin wires the render handlers shipped with sitebuilder.
package builtin

import (
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/render/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/render/react"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Register adds the react and markdown handlers to reg, reading templates from src.
func Register(reg *render.Registry, src theme.TemplateSource) {
	reg.Register(react.Parser, react.New(src))
	reg.Register(markdown.Parser, markdown.New(src))
}

// NewRegistry returns a registry holding every built-in handler.
func NewRegistry(src theme.TemplateSource) *render.Registry {
	reg := render.NewRegistry()
	Register(reg, src)
	return reg
}
