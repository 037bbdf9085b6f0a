package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

func constHandler(name string) Handler {
	return HandlerFunc(func(_ context.Context, templateID string, d *models.Descriptor) ([]models.OutputFile, error) {
		return []models.OutputFile{{Name: name, Content: []byte(templateID + ":" + d.ItemID())}}, nil
	})
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("react", constHandler("first"))
	r.Register("react", constHandler("second"))
	r.Register("markdown", constHandler("md"))
	r.Register("", constHandler("ignored"))
	r.Register("nil", nil)

	require.Equal(t, []string{"markdown", "react"}, r.Parsers())

	h, ok := r.Lookup("react")
	require.True(t, ok)
	files, err := h.Render(context.Background(), "t", &models.Descriptor{})
	require.NoError(t, err)
	require.Equal(t, "first", files[0].Name)

	_, ok = r.Lookup("vue")
	require.False(t, ok)
}

func TestRegistry_Render(t *testing.T) {
	r := NewRegistry()
	r.Register("react", constHandler("index.html"))

	d := &models.Descriptor{Parser: "react", TemplateID: "dark.post", Item: &models.Item{ID: "a"}}
	files, err := r.Render(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, "dark.post:a", string(files[0].Content))

	d.Parser = "vue"
	_, err = r.Render(context.Background(), d)
	require.True(t, errors.Is(err, ErrHandlerMissing))
	require.ErrorContains(t, err, `"vue"`)
}

func TestRegistry_Missing(t *testing.T) {
	r := NewRegistry()
	r.Register("react", constHandler("x"))

	descs := []models.Descriptor{
		{Parser: "react", Item: &models.Item{ID: "a"}},
		{Parser: "vue", Item: &models.Item{ID: "b"}},
	}
	missing := r.Missing(descs)
	require.NotNil(t, missing)
	require.Equal(t, "b", missing.ItemID())
	require.Nil(t, r.Missing(descs[:1]))
}
