// Package testutil holds filesystem helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// WriteFile creates path (and its parents) with content.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// Entries returns the sorted names directly inside dir.
func Entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// InitGitRepo initializes a git repository in dir, the way a deploy step
// leaves one inside the staging directory.
func InitGitRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return repo
}

// FileAssertions checks file system state below a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// Exists validates that each relative path exists.
func (fa *FileAssertions) Exists(relativePaths ...string) *FileAssertions {
	fa.t.Helper()
	for _, rel := range relativePaths {
		require.FileExists(fa.t, filepath.Join(fa.baseDir, rel))
	}
	return fa
}

// Contains validates that a file contains expected content.
func (fa *FileAssertions) Contains(relativePath, expected string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(filepath.Join(fa.baseDir, relativePath))
	require.NoError(fa.t, err)
	require.Contains(fa.t, string(content), expected, "file %s", relativePath)
	return fa
}

// NotContains validates that a file lacks content.
func (fa *FileAssertions) NotContains(relativePath, unexpected string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(filepath.Join(fa.baseDir, relativePath))
	require.NoError(fa.t, err)
	require.NotContains(fa.t, string(content), unexpected, "file %s", relativePath)
	return fa
}
