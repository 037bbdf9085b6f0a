package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

func TestSite_DropsInternalFields(t *testing.T) {
	site := &models.Site{
		ID:       "s1",
		Title:    "Blog",
		Theme:    "dark",
		Vars:     map[string]any{"lang": "en"},
		HeadHTML: "<meta>",
		Hosting:  &models.Hosting{Name: "github", CredentialRef: "keychain:blog"},
	}
	raw, err := json.Marshal(Site(site))
	require.NoError(t, err)
	require.JSONEq(t, `{"uuid":"s1","title":"Blog","theme":"dark","structure":[],"vars":{"lang":"en"}}`, string(raw))
}

func TestSite_Nil(t *testing.T) {
	raw, err := json.Marshal(Site(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"uuid":"","title":"","theme":"","structure":[]}`, string(raw))
}

func TestItems(t *testing.T) {
	items := []*models.Item{
		{ID: "a", Slug: "a", Template: "post", Content: "# secret draft", ExclusiveVars: []string{"x"}},
		nil,
		{ID: "b", Slug: "b", Template: "post", Vars: map[string]any{"x": 1}},
	}
	out := Items(items)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].ID)
	require.Equal(t, "b", out[1].ID)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
	require.NotContains(t, string(raw), "exclusiveVars")

	empty, err := json.Marshal(Items(nil))
	require.NoError(t, err)
	require.Equal(t, "[]", string(empty))
}
