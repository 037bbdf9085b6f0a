package staging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/testutil"
)

func newManager(t *testing.T, opts ...Option) (*Manager, string, string) {
	t.Helper()
	root := t.TempDir()
	buffer := filepath.Join(root, "buffer")
	public := filepath.Join(root, "public")
	return New(buffer, public, opts...), buffer, public
}



func TestClear_PreservesGit(t *testing.T) {
	m, buffer, _ := newManager(t)
	testutil.InitGitRepo(t, buffer)
	testutil.WriteFile(t, filepath.Join(buffer, "stale.html"), "old")
	testutil.WriteFile(t, filepath.Join(buffer, "old", "index.html"), "old")

	require.NoError(t, m.Clear(context.Background()))
	require.Equal(t, []string{".git"}, testutil.Entries(t, buffer))

	_, err := git.PlainOpen(buffer)
	require.NoError(t, err, "repository must survive clearing")

	// Idempotent.
	require.NoError(t, m.Clear(context.Background()))
	require.Equal(t, []string{".git"}, testutil.Entries(t, buffer))
}

func TestClearAll_RemovesGit(t *testing.T) {
	m, buffer, _ := newManager(t)
	testutil.InitGitRepo(t, buffer)
	testutil.WriteFile(t, filepath.Join(buffer, "x.js"), "x")

	require.NoError(t, m.ClearAll(context.Background()))
	require.Empty(t, testutil.Entries(t, buffer))
}

func TestClear_CreatesMissingDirectory(t *testing.T) {
	m, buffer, _ := newManager(t)
	require.NoError(t, m.Clear(context.Background()))
	info, err := os.Stat(buffer)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestClear_RefusesUnsafePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	testutil.WriteFile(t, filepath.Join(dir, "keep.txt"), "precious")

	m := New(dir, "")
	require.False(t, m.Safe())
	require.NoError(t, m.Clear(context.Background()))
	require.NoError(t, m.ClearAll(context.Background()))
	require.Equal(t, []string{"keep.txt"}, testutil.Entries(t, dir))
}

func TestCopyStatic(t *testing.T) {
	m, buffer, public := newManager(t)
	testutil.WriteFile(t, filepath.Join(public, "favicon.ico"), "new-icon")
	testutil.WriteFile(t, filepath.Join(public, "css", "site.css"), "body{}")
	testutil.WriteFile(t, filepath.Join(buffer, "favicon.ico"), "old-icon")

	n, err := m.CopyStatic(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(buffer, "favicon.ico"))
	require.NoError(t, err)
	require.Equal(t, "new-icon", string(data))
	data, err = os.ReadFile(filepath.Join(buffer, "css", "site.css"))
	require.NoError(t, err)
	require.Equal(t, "body{}", string(data))
}

func TestCopyStatic_FollowsSymlinks(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, buffer, public := newManager(t, WithLogger(logger))

	shared := filepath.Join(t.TempDir(), "shared")
	testutil.WriteFile(t, filepath.Join(shared, "logo.svg"), "<svg/>")
	testutil.WriteFile(t, filepath.Join(shared, "fonts", "a.woff"), "font")
	testutil.WriteFile(t, filepath.Join(public, "robots.txt"), "User-agent: *")
	require.NoError(t, os.Symlink(filepath.Join(shared, "logo.svg"), filepath.Join(public, "logo.svg")))
	require.NoError(t, os.Symlink(filepath.Join(shared, "fonts"), filepath.Join(public, "fonts")))
	require.NoError(t, os.Symlink(public, filepath.Join(public, "loop")))
	require.NoError(t, os.Symlink(filepath.Join(public, "gone"), filepath.Join(public, "dangling")))

	n, err := m.CopyStatic(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	files := testutil.NewFileAssertions(t, buffer)
	files.Contains("logo.svg", "<svg/>")
	files.Contains("fonts/a.woff", "font")
	files.Contains("robots.txt", "User-agent")

	info, err := os.Lstat(filepath.Join(buffer, "logo.svg"))
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular(), "symlinked files are copied as regular files")
	require.NoDirExists(t, filepath.Join(buffer, "loop"))
	require.Contains(t, logs.String(), "Skipping symlink cycle")
	require.Contains(t, logs.String(), "Skipping broken symlink")
}

func TestCopyStatic_MissingPublic(t *testing.T) {
	m, _, _ := newManager(t)
	n, err := m.CopyStatic(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWriteConfigs(t *testing.T) {
	m, buffer, _ := newManager(t)
	require.NoError(t, m.WriteSiteConfig(map[string]any{"uuid": "s1"}))
	require.NoError(t, m.WriteItemsConfig([]string{"a", "b"}))

	data, err := os.ReadFile(filepath.Join(buffer, ConfigFileName))
	require.NoError(t, err)
	require.Equal(t, `var PRSSConfig={"uuid":"s1"};`, string(data))

	data, err = os.ReadFile(filepath.Join(buffer, ItemsFileName))
	require.NoError(t, err)
	require.Equal(t, `var PRSSItems=["a","b"];`, string(data))
}

func TestWriteConfigs_Errors(t *testing.T) {
	m, _, _ := newManager(t)
	require.Error(t, m.WriteSiteConfig(make(chan int)))

	// The buffer path is occupied by a regular file.
	root := t.TempDir()
	blocked := filepath.Join(root, "buffer")
	testutil.WriteFile(t, blocked, "not a directory")
	require.Error(t, New(blocked, "").WriteItemsConfig([]string{}))
}

func TestWriteOutputFiles(t *testing.T) {
	rec := &notify.Recorder{}
	m, buffer, _ := newManager(t, WithNotifier(rec))

	root := &models.Descriptor{Path: "/", Item: &models.Item{ID: "root"}}
	res := m.WriteOutputFiles(context.Background(), root, []models.OutputFile{
		{Name: "index.html", Content: []byte("<p>home</p>")},
		{Path: "assets", Name: "app.js", Content: []byte("1")},
	})
	require.True(t, res.OK())
	require.Equal(t, []string{"index.html", "assets/app.js"}, res.Written)

	nested := &models.Descriptor{Path: "/blog/first", Item: &models.Item{ID: "a"}}
	res = m.WriteOutputFiles(context.Background(), nested, []models.OutputFile{{Name: "index.html", Content: []byte("post")}})
	require.True(t, res.OK())
	data, err := os.ReadFile(filepath.Join(buffer, "blog", "first", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "post", string(data))
	require.Empty(t, rec.Errors())
}

func TestWriteOutputFiles_FailureSkipsOnlyThatFile(t *testing.T) {
	rec := &notify.Recorder{}
	m, buffer, _ := newManager(t, WithNotifier(rec))
	// "blocked" exists as a file, so "blocked/x.html" cannot be created.
	testutil.WriteFile(t, filepath.Join(buffer, "page", "blocked"), "file")

	d := &models.Descriptor{Path: "/page", Item: &models.Item{ID: "p"}}
	res := m.WriteOutputFiles(context.Background(), d, []models.OutputFile{
		{Path: "blocked", Name: "x.html", Content: []byte("x")},
		{Name: "", Content: []byte("nameless")},
		{Name: "index.html", Content: []byte("ok")},
	})

	require.False(t, res.OK())
	require.Len(t, res.Failed, 2)
	require.Equal(t, "page/blocked/x.html", res.Failed[0].Path)
	require.Equal(t, []string{"page/index.html"}, res.Written)
	require.Len(t, rec.Errors(), 2)
}

func TestOutputPath(t *testing.T) {
	d := &models.Descriptor{Path: "/a/b"}
	require.Equal(t, "a/b/index.html", OutputPath(d, models.OutputFile{Name: "index.html"}))
	require.Equal(t, "a/b/js/x.js", OutputPath(d, models.OutputFile{Path: "js", Name: "x.js"}))
	require.Equal(t, "index.js", OutputPath(&models.Descriptor{Path: "/"}, models.OutputFile{Name: "index.js"}))
	require.Equal(t, "etc/passwd", OutputPath(&models.Descriptor{Path: "/"}, models.OutputFile{Path: "../../etc", Name: "passwd"}))
}

func TestLock(t *testing.T) {
	m, _, _ := newManager(t)
	l, err := m.Lock()
	require.NoError(t, err)

	_, err = m.Lock()
	require.ErrorIs(t, err, ErrBuildInProgress)

	require.NoError(t, l.Unlock())
	l2, err := m.Lock()
	require.NoError(t, err)
	require.NoError(t, l2.Unlock())

	var nilLock *Lock
	require.NoError(t, nilLock.Unlock())
}
