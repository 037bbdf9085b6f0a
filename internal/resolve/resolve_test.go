package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
)

type manifests map[string]*models.ThemeManifest

func (m manifests) Manifest(_ context.Context, theme string) (*models.ThemeManifest, error) {
	return m[theme], nil
}

type failingManifests struct{}

func (failingManifests) Manifest(context.Context, string) (*models.ThemeManifest, error) {
	return nil, errors.New("disk on fire")
}

func scenario() *storage.MemoryStore {
	return storage.NewMemoryStoreFrom(storage.SiteDocument{
		Site: models.Site{
			ID:       "s1",
			Theme:    "dark",
			Vars:     map[string]any{"lang": "en"},
			HeadHTML: "<site>",
			Structure: []models.StructureNode{{
				Key: "root",
				Children: []models.StructureNode{
					{Key: "a", Children: []models.StructureNode{{Key: "a1"}}},
					{Key: "b"},
					{Key: "ghost"},
				},
			}},
		},
		Items: []*models.Item{
			{ID: "root", Slug: "home", Template: "T", Vars: map[string]any{"theme": "dark"}, HeadHTML: "<root>"},
			{ID: "a", Slug: "blog", Template: "list", Vars: map[string]any{}},
			{ID: "a1", Slug: "first", Template: "post", HeadHTML: "<a1>"},
			{ID: "b", Slug: "about", Template: "T", Vars: map[string]any{"theme": "light"}, ExclusiveVars: []string{"theme"}},
		},
	})
}

func byItem(descs []models.Descriptor) map[string]models.Descriptor {
	out := make(map[string]models.Descriptor, len(descs))
	for _, d := range descs {
		out[d.ItemID()] = d
	}
	return out
}

func TestResolve_Scenario(t *testing.T) {
	store := scenario()
	r := New(store, manifests{"dark": {Name: "dark", Parser: "react"}})

	descs, err := r.ResolveByID(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, descs, 4, "ghost has no item and is skipped")
	require.Equal(t, []string{"root", "a", "a1", "b"}, []string{descs[0].ItemID(), descs[1].ItemID(), descs[2].ItemID(), descs[3].ItemID()})
	require.Equal(t, 1, store.Calls().ItemsByID, "items are fetched in one bulk lookup")
	require.Zero(t, store.Calls().Item)

	got := byItem(descs)

	root := got["root"]
	require.Equal(t, "/", root.Path)
	require.Equal(t, "", root.RootPath)
	require.Equal(t, "dark.T", root.TemplateID)
	require.Equal(t, "react", root.Parser)
	require.Equal(t, map[string]any{"lang": "en", "theme": "dark"}, root.Vars)
	require.Equal(t, "<site><root>", root.HeadHTML)

	a := got["a"]
	require.Equal(t, "/blog", a.Path)
	require.Equal(t, "../", a.RootPath)
	require.Equal(t, "dark", a.Vars["theme"])

	a1 := got["a1"]
	require.Equal(t, "/blog/first", a1.Path)
	require.Equal(t, "../../", a1.RootPath)
	require.Equal(t, "dark.post", a1.TemplateID)
	require.Equal(t, "<site><root><a1>", a1.HeadHTML)
	require.Equal(t, []string{"root", "a", "a1"}, a1.StructurePath)

	b := got["b"]
	require.Equal(t, "/about", b.Path)
	require.Equal(t, "light", b.Vars["theme"], "own value applies even when excluded from inheritance")
	require.Equal(t, "en", b.Vars["lang"])
}

func TestResolve_ExclusiveVarBlocksInheritance(t *testing.T) {
	store := storage.NewMemoryStoreFrom(storage.SiteDocument{
		Site: models.Site{ID: "s", Theme: "t", Structure: []models.StructureNode{{Key: "r", Children: []models.StructureNode{{Key: "c"}}}}},
		Items: []*models.Item{
			{ID: "r", Vars: map[string]any{"x": 1, "y": 2}},
			{ID: "c", Slug: "c", ExclusiveVars: []string{"x"}},
		},
	})
	descs, err := New(store, manifests{"t": {Parser: "p"}}).ResolveByID(context.Background(), "s")
	require.NoError(t, err)
	c := byItem(descs)["c"]
	require.NotContains(t, c.Vars, "x")
	require.Equal(t, 2, c.Vars["y"])
}

func TestResolve_MissingManifest(t *testing.T) {
	rec := &notify.Recorder{}
	r := New(scenario(), manifests{}, WithNotifier(rec))

	_, err := r.ResolveByID(context.Background(), "s1")
	require.ErrorIs(t, err, ErrThemeManifestMissing)
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryTheme))
	require.Equal(t, []string{`Theme "dark" has no manifest. The build was stopped.`}, rec.Alerts())
}

func TestResolve_ManifestError(t *testing.T) {
	_, err := New(scenario(), failingManifests{}).ResolveByID(context.Background(), "s1")
	require.ErrorContains(t, err, "disk on fire")
	require.False(t, errors.Is(err, ErrThemeManifestMissing))
}

func TestResolve_UnknownSite(t *testing.T) {
	_, err := New(scenario(), manifests{}).ResolveByID(context.Background(), "nope")
	require.True(t, storage.IsNotFound(err))
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryStorage))
}

func TestResolve_SingleLevelAndEmptySlugs(t *testing.T) {
	store := storage.NewMemoryStoreFrom(storage.SiteDocument{
		Site: models.Site{ID: "s", Theme: "t", Structure: []models.StructureNode{{
			Key:      "r",
			Children: []models.StructureNode{{Key: "group", Children: []models.StructureNode{{Key: "leaf"}}}},
		}}},
		Items: []*models.Item{
			{ID: "r", Slug: "ignored"},
			{ID: "group", Slug: ""},
			{ID: "leaf", Slug: "leaf"},
		},
	})
	descs, err := New(store, manifests{"t": {Parser: "p"}}).ResolveByID(context.Background(), "s")
	require.NoError(t, err)
	got := byItem(descs)
	require.Equal(t, "/", got["r"].Path)
	require.Equal(t, "/", got["group"].Path)
	require.Equal(t, "/leaf", got["leaf"].Path)
	require.Equal(t, "../", got["leaf"].RootPath)
}

func TestResolve_MissingAncestorSkipsDescendants(t *testing.T) {
	store := storage.NewMemoryStoreFrom(storage.SiteDocument{
		Site: models.Site{ID: "s", Theme: "t", Structure: []models.StructureNode{{
			Key:      "r",
			Children: []models.StructureNode{{Key: "lost", Children: []models.StructureNode{{Key: "orphan"}}}},
		}}},
		Items: []*models.Item{{ID: "r"}, {ID: "orphan", Slug: "o"}},
	})
	descs, err := New(store, manifests{"t": {Parser: "p"}}).ResolveByID(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, "r", descs[0].ItemID())
}

func TestPartial(t *testing.T) {
	descs, err := New(scenario(), manifests{"dark": {Parser: "react"}}).ResolveByID(context.Background(), "s1")
	require.NoError(t, err)

	main, subset, err := Partial(descs, "a1")
	require.NoError(t, err)
	require.Equal(t, "a1", main.ItemID())
	require.Equal(t, []string{"root", "a", "a1"}, []string{subset[0].ItemID(), subset[1].ItemID(), subset[2].ItemID()})
	require.Len(t, subset, 3)

	main, subset, err = Partial(descs, "root")
	require.NoError(t, err)
	require.Equal(t, "root", main.ItemID())
	require.Len(t, subset, 1)

	main, subset, err = Partial(descs, "b")
	require.NoError(t, err)
	require.Equal(t, "/about", main.Path)
	require.Len(t, subset, 2)

	_, _, err = Partial(descs, "ghost")
	require.ErrorIs(t, err, ErrItemNotFound)
}
