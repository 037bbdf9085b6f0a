// Package render dispatches render descriptors to the handler registered for
// their parser.
package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// ErrHandlerMissing is returned when no handler is registered for a parser.
var ErrHandlerMissing = errors.New("no render handler registered")

// Handler turns one descriptor into the files written to its output directory.
type Handler interface {
	Render(ctx context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error)

func (f HandlerFunc) Render(ctx context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error) {
	return f(ctx, templateID, d)
}

// Registry maps parser identifiers to handlers. It performs no rendering
// itself. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for parser. A nil handler and duplicate parser
// names are ignored; the first registration wins.
func (r *Registry) Register(parser string, h Handler) {
	if h == nil || parser == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[parser]; exists {
		return
	}
	r.handlers[parser] = h
}

// Lookup returns the handler for parser.
func (r *Registry) Lookup(parser string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[parser]
	return h, ok
}

// Parsers lists registered parser identifiers in sorted order.
func (r *Registry) Parsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for p := range r.handlers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Missing returns the first descriptor whose parser has no handler, or nil.
func (r *Registry) Missing(descs []models.Descriptor) *models.Descriptor {
	for i := range descs {
		if _, ok := r.Lookup(descs[i].Parser); !ok {
			return &descs[i]
		}
	}
	return nil
}

// Render dispatches d to the handler registered for d.Parser.
func (r *Registry) Render(ctx context.Context, d *models.Descriptor) ([]models.OutputFile, error) {
	h, ok := r.Lookup(d.Parser)
	if !ok {
		return nil, fmt.Errorf("%w: parser %q (item %s)", ErrHandlerMissing, d.Parser, d.ItemID())
	}
	return h.Render(ctx, d.TemplateID, d)
}
