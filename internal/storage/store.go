// Package storage provides read access to sites and their items, plus the
// write side used by the import command.
package storage

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// Store is the key-value read API the build pipeline consumes.
type Store interface {
	// Site returns the site with the given id.
	// Returns ErrNotFound if the site doesn't exist.
	Site(ctx context.Context, siteID string) (*models.Site, error)

	// Items returns every item of the site in storage order.
	Items(ctx context.Context, siteID string) ([]*models.Item, error)

	// Item returns a single item.
	// Returns ErrNotFound if the item doesn't exist.
	Item(ctx context.Context, siteID, itemID string) (*models.Item, error)

	// ItemsByID resolves many ids in one call. Unknown ids are absent from
	// the result rather than reported as errors.
	ItemsByID(ctx context.Context, siteID string, ids []string) (map[string]*models.Item, error)

	// Close releases any resources held by the store.
	Close() error
}

// Writer stores sites and items.
type Writer interface {
	PutSite(ctx context.Context, site *models.Site) error
	PutItem(ctx context.Context, item *models.Item) error
}

// ReadWriter is a store that can also be written to.
type ReadWriter interface {
	Store
	Writer
}

// SiteDocument is the on-disk form of one site and all of its items. The
// YAML file store keeps one document per file; import reads the same shape.
type SiteDocument struct {
	Site  models.Site    `yaml:"site" json:"site"`
	Items []*models.Item `yaml:"items" json:"items"`
}

// ErrNotFound is returned when a site or item doesn't exist.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

func siteNotFound(id string) error { return ErrNotFound{Kind: "site", ID: id} }
func itemNotFound(id string) error { return ErrNotFound{Kind: "item", ID: id} }

// pick filters items down to the requested ids.
func pick(items []*models.Item, ids []string) map[string]*models.Item {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[string]*models.Item, len(ids))
	for _, it := range items {
		if _, ok := want[it.ID]; ok {
			out[it.ID] = it
		}
	}
	return out
}
