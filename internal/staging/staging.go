// Package staging owns the buffer directory a build writes into.
//
// Layout after a build:
//
//	buffer/
//	  .git/            preserved by Clear
//	  config.js        var PRSSConfig={...};
//	  items.js         var PRSSItems=[...];
//	  <static assets>  copied from the public directory
//	  <item path>/     one directory per rendered descriptor
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/util/sets"
)

// Fixed file names at the staging root.
const (
	ConfigFileName = "config.js"
	ItemsFileName  = "items.js"
	VCSDir         = ".git"

	configVar = "PRSSConfig"
	itemsVar  = "PRSSItems"
)

// ErrOutsideBuffer is reported for output files whose path would escape the buffer.
var ErrOutsideBuffer = errors.New("path escapes staging directory")

// Manager manages one staging directory.
type Manager struct {
	buffer   string
	public   string
	logger   *slog.Logger
	notifier notify.Notifier
	describe func(path string, err error) string
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

func WithNotifier(n notify.Notifier) Option { return func(m *Manager) { m.notifier = n } }

// WithFailureMessage sets how per-file write failures are worded for the notifier.
func WithFailureMessage(fn func(path string, err error) string) Option {
	return func(m *Manager) { m.describe = fn }
}

// New returns a manager for the buffer directory, copying static assets
// from public.
func New(buffer, public string, opts ...Option) *Manager {
	m := &Manager{
		buffer:   filepath.Clean(buffer),
		public:   public,
		logger:   slog.Default(),
		notifier: notify.Nop{},
		describe: func(path string, err error) string { return fmt.Sprintf("could not write %s: %v", path, err) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the staging directory.
func (m *Manager) Dir() string { return m.buffer }

// Safe reports whether the buffer path plausibly names a staging directory.
// Destructive operations are refused otherwise.
func (m *Manager) Safe() bool {
	return strings.Contains(filepath.Base(m.buffer), "buffer")
}

// Clear empties the staging directory, keeping the directory itself and its
// .git folder. It is a no-op (logged) when the buffer path fails the Safe
// check, and creates the directory when it does not exist yet.
func (m *Manager) Clear(ctx context.Context) error {
	return m.clear(ctx, sets.New(VCSDir))
}

// ClearAll empties the staging directory including its .git folder.
func (m *Manager) ClearAll(ctx context.Context) error {
	return m.clear(ctx, nil)
}

func (m *Manager) clear(ctx context.Context, keep sets.Set[string]) error {
	if !m.Safe() {
		m.logger.WarnContext(ctx, "Refusing to clear staging directory without \"buffer\" in its name", logfields.Path(m.buffer))
		return nil
	}
	if err := os.MkdirAll(m.buffer, 0o750); err != nil {
		return sberrors.StagingError("clear", err).WithContext("path", m.buffer)
	}
	entries, err := os.ReadDir(m.buffer)
	if err != nil {
		return sberrors.StagingError("clear", err).WithContext("path", m.buffer)
	}
	for _, entry := range entries {
		if keep.Has(entry.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.buffer, entry.Name())); err != nil {
			return sberrors.StagingError("clear", err).WithContext("path", entry.Name())
		}
	}
	m.logger.DebugContext(ctx, "Cleared staging directory", logfields.Path(m.buffer), slog.Int("removed", len(entries)-countKept(entries, keep)))
	return nil
}

func countKept(entries []os.DirEntry, keep sets.Set[string]) int {
	n := 0
	for _, e := range entries {
		if keep.Has(e.Name()) {
			n++
		}
	}
	return n
}

// CopyStatic copies the public directory's contents into the buffer,
// overwriting existing files. A missing public directory copies nothing.
func (m *Manager) CopyStatic(ctx context.Context) (int, error) {
	if m.public == "" {
		return 0, nil
	}
	info, err := os.Stat(m.public)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.DebugContext(ctx, "No public directory to copy", logfields.Path(m.public))
		return 0, nil
	}
	if err != nil {
		return 0, sberrors.StagingError("copy_static", err).WithContext("path", m.public)
	}
	if !info.IsDir() {
		return 0, sberrors.StagingError("copy_static", fmt.Errorf("%s is not a directory", m.public))
	}
	n, err := m.copyDir(ctx, m.public, m.buffer, sets.New[string]())
	if err != nil {
		return n, sberrors.StagingError("copy_static", err).WithContext("path", m.public)
	}
	return n, nil
}

// copyDir recursively copies src into dst and returns the number of files
// copied. Symlinks are followed; a link back into a directory already being
// copied is skipped, as is anything that is not a regular file.
func (m *Manager) copyDir(ctx context.Context, src, dst string, visiting sets.Set[string]) (int, error) {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return 0, err
	}
	if !visiting.AddNew(resolved) {
		m.logger.DebugContext(ctx, "Skipping symlink cycle in public directory", logfields.Path(src))
		return 0, nil
	}
	defer delete(visiting, resolved)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		mode := entry.Type()
		if mode&os.ModeSymlink != 0 {
			info, err := os.Stat(srcPath)
			if err != nil {
				m.logger.DebugContext(ctx, "Skipping broken symlink in public directory",
					logfields.Path(srcPath), logfields.Error(err))
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			n, err := m.copyDir(ctx, srcPath, dstPath, visiting)
			copied += n
			if err != nil {
				return copied, err
			}
		case mode.IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return copied, err
			}
			copied++
		default:
			m.logger.DebugContext(ctx, "Skipping non-regular file in public directory",
				logfields.Path(srcPath), slog.String("mode", mode.String()))
		}
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src) // #nosec G304 -- walking the configured public directory
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) // #nosec G304
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// WriteSiteConfig writes config.js assigning the JSON form of v to PRSSConfig.
func (m *Manager) WriteSiteConfig(v any) error {
	return m.writeScript(ConfigFileName, configVar, v)
}

// WriteItemsConfig writes items.js assigning the JSON form of v to PRSSItems.
func (m *Manager) WriteItemsConfig(v any) error {
	return m.writeScript(ItemsFileName, itemsVar, v)
}

func (m *Manager) writeScript(name, variable string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return sberrors.StagingError("write_"+strings.TrimSuffix(name, ".js"), err)
	}
	content := make([]byte, 0, len(data)+len(variable)+8)
	content = append(content, "var "+variable+"="...)
	content = append(content, data...)
	content = append(content, ';')

	if err := os.MkdirAll(m.buffer, 0o750); err != nil {
		return sberrors.StagingError("write_"+strings.TrimSuffix(name, ".js"), err)
	}
	// #nosec G306 -- published site asset
	if err := os.WriteFile(filepath.Join(m.buffer, name), content, 0o644); err != nil {
		return sberrors.StagingError("write_"+strings.TrimSuffix(name, ".js"), err).WithContext("file", name)
	}
	return nil
}
