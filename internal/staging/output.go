package staging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// FileFailure is one output file that could not be written.
type FileFailure struct {
	Path string
	Err  error
}

// WriteResult reports the outcome of writing one descriptor's files.
type WriteResult struct {
	Written []string
	Failed  []FileFailure
}

// OK reports whether every file was written.
func (r WriteResult) OK() bool { return len(r.Failed) == 0 }

// OutputPath returns the staging-relative path of f rendered for d,
// i.e. <d.Path>/<f.Path>/<f.Name> with forward slashes.
func OutputPath(d *models.Descriptor, f models.OutputFile) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Join("/", d.Path, f.Path, f.Name)), "/")
}

// WriteOutputFiles writes files under buffer/<d.Path>/, creating directories
// as needed. A file that fails to write is logged, reported to the notifier
// and skipped; its siblings are still written.
func (m *Manager) WriteOutputFiles(ctx context.Context, d *models.Descriptor, files []models.OutputFile) WriteResult {
	var res WriteResult
	for _, f := range files {
		rel := OutputPath(d, f)
		if err := m.writeOutput(rel, f); err != nil {
			m.logger.ErrorContext(ctx, "Failed to write output file",
				logfields.ItemID(d.ItemID()),
				logfields.File(rel),
				logfields.Error(err))
			m.notifier.Error(ctx, m.describe(rel, err))
			res.Failed = append(res.Failed, FileFailure{Path: rel, Err: err})
			continue
		}
		res.Written = append(res.Written, rel)
	}
	return res
}

func (m *Manager) writeOutput(rel string, f models.OutputFile) error {
	if f.Name == "" {
		return fmt.Errorf("output file without a name")
	}
	full := filepath.Join(m.buffer, filepath.FromSlash(rel))
	if !within(m.buffer, full) {
		return fmt.Errorf("%w: %s", ErrOutsideBuffer, rel)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil { // #nosec G301 -- published site tree
		return err
	}
	return os.WriteFile(full, f.Content, 0o644) // #nosec G306 -- published site asset
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
