package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/i18n"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/render/builtin"
	"git.home.luguber.info/inful/sitebuilder/internal/resolve"
	"git.home.luguber.info/inful/sitebuilder/internal/staging"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

type fixture struct {
	buffer  string
	public  string
	themes  string
	store   *storage.MemoryStore
	alerts  *notify.Recorder
	stage   *staging.Manager
	builder *Builder
}


func siteDocument(themeName string) storage.SiteDocument {
	return storage.SiteDocument{
		Site: models.Site{
			ID:      "s1",
			Title:   "Scenario",
			Theme:   themeName,
			Hosting: &models.Hosting{Name: "github", CredentialRef: "keychain:secret"},
			Structure: []models.StructureNode{{
				Key:      "root",
				Children: []models.StructureNode{{Key: "a"}, {Key: "b"}},
			}},
		},
		Items: []*models.Item{
			{ID: "root", Slug: "home", Template: "T", Vars: map[string]any{"theme": "dark"}},
			{ID: "a", Slug: "blog", Template: "T", Vars: map[string]any{}},
			{ID: "b", Slug: "about", Template: "T", Vars: map[string]any{"theme": "light"}, ExclusiveVars: []string{"theme"}},
		},
	}
}

func newFixture(t *testing.T, parser string, renderer Renderer) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		buffer: filepath.Join(root, "buffer"),
		public: filepath.Join(root, "public"),
		themes: filepath.Join(root, "themes"),
		store:  storage.NewMemoryStoreFrom(siteDocument("dark")),
		alerts: &notify.Recorder{},
	}
	if parser != "" {
		testutil.WriteFile(t, filepath.Join(f.themes, "dark", theme.ManifestFile), `{"parser": "`+parser+`"}`)
	}
	testutil.WriteFile(t, filepath.Join(f.themes, "dark", "T.js"), "var PRSSComponent = {default: function(){}};")

	dir := theme.NewDir(f.themes)
	if renderer == nil {
		renderer = builtin.NewRegistry(dir)
	}
	f.stage = staging.New(f.buffer, f.public, staging.WithNotifier(f.alerts))
	f.builder = NewBuilder(f.store, dir, renderer, f.stage).
		WithNotifier(f.alerts).
		WithPace(0)
	return f
}


func ids(descs []models.Descriptor) []string {
	out := make([]string, len(descs))
	for i := range descs {
		out[i] = descs[i].ItemID()
	}
	return out
}

func TestStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusSuccess, true},
		{StatusFailed, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.expected)
			}
			if !tt.status.IsTerminal() {
				t.Errorf("%s should be terminal", tt.status)
			}
		})
	}
}

func TestResult_ItemsNil(t *testing.T) {
	var r *Result
	if r.Items() != nil {
		t.Error("nil result should have no items")
	}
}

func TestBuild_FullSite(t *testing.T) {
	f := newFixture(t, "react", nil)
	testutil.WriteFile(t, filepath.Join(f.buffer, "stale", "old.html"), "stale")

	var progress []string
	result, err := f.builder.Build(context.Background(), Request{
		SiteID:     "s1",
		OnProgress: func(msg string) { progress = append(progress, msg) },
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, []string{"root", "a", "b"}, ids(result.Items()))
	require.Nil(t, result.Main)

	_, err = uuid.Parse(result.BuildID)
	require.NoError(t, err)
	require.Equal(t, result.BuildID, result.Report.BuildID)
	require.Equal(t, []string{StageLock, StagePrepareStaging, StagePreflight, StageWriteConfig, StageCopyStatic, StageResolve, StageRender}, result.Report.StageNames())
	require.Equal(t, 3, result.Report.Rendered)
	require.Equal(t, 6, result.Report.FilesWritten)
	require.Zero(t, result.Report.FilesFailed)

	require.Equal(t, []string{"Building… 33%", "Building… 67%", "Building… 100%"}, progress)

	// Root renders into the staging root; its children get one directory each.
	require.Equal(t, []string{"about", "blog", "config.js", "index.html", "index.js", "items.js"}, testutil.Entries(t, f.buffer))
	require.Equal(t, []string{"index.html", "index.js"}, testutil.Entries(t, filepath.Join(f.buffer, "blog")))

	config, err := os.ReadFile(filepath.Join(f.buffer, staging.ConfigFileName))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(config), "var PRSSConfig={"), string(config))
	require.NotContains(t, string(config), "keychain")

	items, err := os.ReadFile(filepath.Join(f.buffer, staging.ItemsFileName))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(items), "var PRSSItems=["), string(items))

	blog, err := os.ReadFile(filepath.Join(f.buffer, "blog", "index.js"))
	require.NoError(t, err)
	require.Contains(t, string(blog), `"vars":{"theme":"dark"}`)
	require.Contains(t, string(blog), `"rootPath":"../"`)

	about, err := os.ReadFile(filepath.Join(f.buffer, "about", "index.js"))
	require.NoError(t, err)
	require.Contains(t, string(about), `"vars":{"theme":"light"}`)
}

func TestBuild_CopiesStaticAssets(t *testing.T) {
	f := newFixture(t, "react", nil)
	testutil.WriteFile(t, filepath.Join(f.public, "css", "site.css"), "body{}")

	result, err := f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Report.StaticFiles)
	require.FileExists(t, filepath.Join(f.buffer, "css", "site.css"))
}

func TestBuild_SkipClearKeepsPreviousFiles(t *testing.T) {
	f := newFixture(t, "react", nil)
	testutil.WriteFile(t, filepath.Join(f.buffer, "keep.txt"), "x")

	result, err := f.builder.Build(context.Background(), Request{SiteID: "s1", SkipClear: true})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(f.buffer, "keep.txt"))
	_, ok := result.Report.Stage(StagePrepareStaging)
	require.False(t, ok)
}

func TestBuild_PartialReturnsTarget(t *testing.T) {
	f := newFixture(t, "react", nil)

	result, err := f.builder.Build(context.Background(), Request{SiteID: "s1", TargetItemID: "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(result.Items()))
	require.Equal(t, []string{"root", "b"}, ids(result.Descriptors))
	require.DirExists(t, filepath.Join(f.buffer, "about"))
	require.NoDirExists(t, filepath.Join(f.buffer, "blog"))
}

func TestBuild_UnknownTarget(t *testing.T) {
	f := newFixture(t, "react", nil)

	result, err := f.builder.Build(context.Background(), Request{SiteID: "s1", TargetItemID: "nope"})
	require.ErrorIs(t, err, resolve.ErrItemNotFound)
	require.Equal(t, StatusFailed, result.Status)
}

func TestBuild_MissingManifestWritesNothing(t *testing.T) {
	f := newFixture(t, "", nil)
	testutil.WriteFile(t, filepath.Join(f.buffer, "stale.txt"), "stale")

	result, err := f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.ErrorIs(t, err, resolve.ErrThemeManifestMissing)
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryTheme))
	require.Equal(t, StatusFailed, result.Status)
	require.Empty(t, testutil.Entries(t, f.buffer))
	require.Len(t, f.alerts.Alerts(), 1)

	stage, ok := result.Report.Stage(StagePreflight)
	require.True(t, ok)
	require.Equal(t, metrics.ResultFatal, stage.Result)
}

func TestBuild_EmptySiteID(t *testing.T) {
	f := newFixture(t, "react", nil)

	result, err := f.builder.Build(context.Background(), Request{SiteID: "  "})
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryValidation))
	require.Equal(t, StatusFailed, result.Status)
	require.Empty(t, result.Report.Stages)
	require.NoDirExists(t, f.buffer)
}

func TestBuild_UnknownSite(t *testing.T) {
	f := newFixture(t, "react", nil)

	_, err := f.builder.Build(context.Background(), Request{SiteID: "ghost"})
	require.True(t, storage.IsNotFound(err))
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryStorage))
}

func TestBuild_MissingHandlerRendersNothing(t *testing.T) {
	f := newFixture(t, "vue", nil)

	_, err := f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.True(t, sberrors.IsCategory(err, sberrors.CategoryRender))
	require.Equal(t, []string{`No renderer is registered for parser "vue" (item root).`}, f.alerts.Alerts())
	require.Equal(t, []string{"config.js", "items.js"}, testutil.Entries(t, f.buffer))
}

func TestBuild_FailedItemDoesNotStopTheRest(t *testing.T) {
	reg := render.NewRegistry()
	reg.Register("test", render.HandlerFunc(func(_ context.Context, _ string, d *models.Descriptor) ([]models.OutputFile, error) {
		if d.ItemID() == "a" {
			return nil, errors.New("template exploded")
		}
		return []models.OutputFile{{Name: "index.html", Content: []byte(d.ItemID())}}, nil
	}))
	f := newFixture(t, "test", reg)

	var progress []string
	result, err := f.builder.Build(context.Background(), Request{
		SiteID:     "s1",
		OnProgress: func(msg string) { progress = append(progress, msg) },
	})
	require.ErrorIs(t, err, ErrItemsFailed)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, 2, result.Report.Rendered)
	require.Equal(t, []ItemFailure{{ItemID: "a", Path: "/blog", Error: "template exploded"}}, result.Report.Failures)
	require.FileExists(t, filepath.Join(f.buffer, "about", "index.html"))
	require.Len(t, progress, 3)
	require.Equal(t, "Building… 100%", progress[2])

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageRender, stageErr.Stage)
	require.True(t, stageErr.Fatal())
}

func TestBuild_LocalizedProgress(t *testing.T) {
	f := newFixture(t, "react", nil)
	f.builder.WithMessages(i18n.New("de"))

	var last string
	_, err := f.builder.Build(context.Background(), Request{SiteID: "s1", OnProgress: func(msg string) { last = msg }})
	require.NoError(t, err)
	require.Equal(t, "Erstelle… 100%", last)
}

func TestBuild_LockHeld(t *testing.T) {
	f := newFixture(t, "react", nil)
	lock, err := f.stage.Lock()
	require.NoError(t, err)
	defer func() { _ = lock.Unlock() }()

	_, err = f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.ErrorIs(t, err, staging.ErrBuildInProgress)
	require.NoDirExists(t, f.buffer)
}

func TestBuild_Cancelled(t *testing.T) {
	f := newFixture(t, "react", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.builder.Build(ctx, Request{SiteID: "s1"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, result.Status)
}

func TestBuild_Pacing(t *testing.T) {
	f := newFixture(t, "react", nil)
	f.builder.WithPace(20 * time.Millisecond)

	start := time.Now()
	_, err := f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.BuildOutcomeLabel
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.outcomes = append(r.outcomes, o)
}

func TestBuild_RecordsOutcome(t *testing.T) {
	f := newFixture(t, "react", nil)
	rec := &outcomeRecorder{}
	f.builder.WithRecorder(rec)

	_, err := f.builder.Build(context.Background(), Request{SiteID: "s1"})
	require.NoError(t, err)
	_, _ = f.builder.Build(context.Background(), Request{SiteID: ""})
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess, metrics.BuildOutcomeFailed}, rec.outcomes)
}
