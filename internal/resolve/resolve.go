// Package resolve turns a site's structure tree into render descriptors.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/aggregate"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/i18n"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
	"git.home.luguber.info/inful/sitebuilder/internal/structure"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

var (
	// ErrThemeManifestMissing is returned when the site's theme has no manifest.
	ErrThemeManifestMissing = errors.New("theme manifest not found")
	// ErrItemNotFound is returned by Partial for an id without a descriptor.
	ErrItemNotFound = errors.New("item not found in structure")
)

// Resolver builds descriptors from storage and theme manifests.
type Resolver struct {
	store    storage.Store
	themes   theme.ManifestSource
	notifier notify.Notifier
	messages *i18n.Messages
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithNotifier(n notify.Notifier) Option { return func(r *Resolver) { r.notifier = n } }
func WithMessages(m *i18n.Messages) Option  { return func(r *Resolver) { r.messages = m } }
func WithLogger(l *slog.Logger) Option      { return func(r *Resolver) { r.logger = l } }

func New(store storage.Store, themes theme.ManifestSource, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		themes:   themes,
		notifier: notify.Nop{},
		messages: i18n.New("en"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Manifest returns the manifest of the site's theme. A missing manifest is
// reported to the notifier and returned as ErrThemeManifestMissing.
func (r *Resolver) Manifest(ctx context.Context, site *models.Site) (*models.ThemeManifest, error) {
	manifest, err := r.themes.Manifest(ctx, site.Theme)
	if err != nil {
		return nil, sberrors.Wrap(err, sberrors.CategoryTheme, sberrors.SeverityFatal, "theme manifest unreadable").
			WithContext("theme", site.Theme)
	}
	if manifest == nil {
		r.notifier.Alert(ctx, r.messages.Sprintf(i18n.KeyThemeManifestMissing, site.Theme))
		return nil, sberrors.ThemeManifestMissing(site.Theme, ErrThemeManifestMissing)
	}
	return manifest, nil
}

// ResolveByID loads the site and resolves its descriptors.
func (r *Resolver) ResolveByID(ctx context.Context, siteID string) ([]models.Descriptor, error) {
	site, err := r.store.Site(ctx, siteID)
	if err != nil {
		return nil, sberrors.StorageError("get_site", err).WithContext("site", siteID)
	}
	return r.Resolve(ctx, site)
}

// Resolve returns one descriptor per resolvable structure node, in
// depth-first order. The theme manifest is checked before any item is read.
func (r *Resolver) Resolve(ctx context.Context, site *models.Site) ([]models.Descriptor, error) {
	manifest, err := r.Manifest(ctx, site)
	if err != nil {
		return nil, err
	}
	return r.Descriptors(ctx, site, manifest)
}

// Descriptors resolves the site's structure against an already loaded
// manifest. Every referenced item is fetched with a single bulk lookup.
// Nodes whose item (or any ancestor item) is unknown are skipped.
func (r *Resolver) Descriptors(ctx context.Context, site *models.Site, manifest *models.ThemeManifest) ([]models.Descriptor, error) {
	paths := structure.Paths(site.Structure)

	items, err := r.store.ItemsByID(ctx, site.ID, structure.IDs(paths))
	if err != nil {
		return nil, sberrors.StorageError("get_items", err).WithContext("site", site.ID)
	}

	descs := make([]models.Descriptor, 0, len(paths))
	for _, p := range paths {
		d, ok := Descriptor(site, manifest, structure.Split(p), items)
		if !ok {
			r.logger.DebugContext(ctx, "Skipping unresolvable structure node", logfields.SiteID(site.ID), logfields.Path(p))
			continue
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Descriptor builds the descriptor for the node identified by ids (root
// first). It reports false when any id is missing from items.
//
// The first id is the structural root item; its slug never appears in output
// paths, so the root renders to "/" and its children directly below it.
// Empty slugs contribute no path segment.
func Descriptor(site *models.Site, manifest *models.ThemeManifest, ids []string, items map[string]*models.Item) (models.Descriptor, bool) {
	if len(ids) == 0 {
		return models.Descriptor{}, false
	}
	segments := make([]string, 0, len(ids)-1)
	for i, id := range ids {
		item, ok := items[id]
		if !ok || item == nil {
			return models.Descriptor{}, false
		}
		if i > 0 && item.Slug != "" {
			segments = append(segments, item.Slug)
		}
	}

	item := items[ids[len(ids)-1]]
	ancestors := ids[:len(ids)-1]
	merged := aggregate.Resolve(site, item, ancestors, items)

	return models.Descriptor{
		Path:          "/" + strings.Join(segments, "/"),
		TemplateID:    theme.TemplateID(site.Theme, item.Template),
		Parser:        manifest.Parser,
		Item:          item,
		Site:          site,
		RootPath:      strings.Repeat("../", len(segments)),
		Vars:          merged.Vars,
		HeadHTML:      merged.HeadHTML,
		FooterHTML:    merged.FooterHTML,
		SidebarHTML:   merged.SidebarHTML,
		StructurePath: append([]string(nil), ids...),
	}, true
}

// Partial narrows descs to what a single-item build of targetID needs: the
// target itself, every ancestor on its structure path and the structural
// root item. List order is preserved. The returned main descriptor is the
// target's.
func Partial(descs []models.Descriptor, targetID string) (models.Descriptor, []models.Descriptor, error) {
	var main *models.Descriptor
	for i := range descs {
		if descs[i].ItemID() == targetID {
			main = &descs[i]
			break
		}
	}
	if main == nil {
		return models.Descriptor{}, nil, fmt.Errorf("%w: %s", ErrItemNotFound, targetID)
	}

	needed := sets.New(main.StructurePath...)
	needed.Add(targetID)

	subset := make([]models.Descriptor, 0, len(needed))
	for _, d := range descs {
		if needed.Has(d.ItemID()) {
			subset = append(subset, d)
		}
	}
	return *main, subset, nil
}
