package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// FileStore is a filesystem-based implementation of ReadWriter. Each site is
// one YAML document holding the site record and its items:
//
//	sites/
//	  <site-id>.yaml
//	  <other-site-id>.yaml
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a YAML file store rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (fs *FileStore) Site(_ context.Context, siteID string) (*models.Site, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	doc, err := fs.read(siteID)
	if err != nil {
		return nil, err
	}
	return &doc.Site, nil
}

func (fs *FileStore) Items(_ context.Context, siteID string) ([]*models.Item, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	doc, err := fs.read(siteID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Items, nil
}

func (fs *FileStore) Item(_ context.Context, siteID, itemID string) (*models.Item, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	doc, err := fs.read(siteID)
	if err != nil {
		return nil, err
	}
	for _, it := range doc.Items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, itemNotFound(itemID)
}

func (fs *FileStore) ItemsByID(_ context.Context, siteID string, ids []string) (map[string]*models.Item, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	doc, err := fs.read(siteID)
	if err != nil {
		if IsNotFound(err) {
			return map[string]*models.Item{}, nil
		}
		return nil, err
	}
	return pick(doc.Items, ids), nil
}

// PutSite writes the site record, keeping any items already stored with it.
func (fs *FileStore) PutSite(_ context.Context, site *models.Site) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.read(site.ID)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if doc == nil {
		doc = &SiteDocument{}
	}
	doc.Site = *site
	return fs.write(doc)
}

// PutItem inserts or replaces an item. The site must already exist.
func (fs *FileStore) PutItem(_ context.Context, item *models.Item) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.read(item.SiteID)
	if err != nil {
		return err
	}
	replaced := false
	for i, it := range doc.Items {
		if it.ID == item.ID {
			doc.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Items = append(doc.Items, item)
	}
	return fs.write(doc)
}

func (fs *FileStore) Close() error { return nil }

func (fs *FileStore) sitePath(siteID string) (string, error) {
	if siteID == "" || strings.ContainsAny(siteID, `/\`) || siteID == "." || siteID == ".." {
		return "", fmt.Errorf("invalid site id %q", siteID)
	}
	return filepath.Join(fs.basePath, siteID+".yaml"), nil
}

func (fs *FileStore) read(siteID string) (*SiteDocument, error) {
	path, err := fs.sitePath(siteID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to basePath
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, siteNotFound(siteID)
		}
		return nil, fmt.Errorf("read site %s: %w", siteID, err)
	}
	var doc SiteDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode site %s: %w", siteID, err)
	}
	if doc.Site.ID == "" {
		doc.Site.ID = siteID
	}
	for _, it := range doc.Items {
		it.SiteID = doc.Site.ID
	}
	return &doc, nil
}

// write replaces the site file atomically through a temp file in the same directory.
func (fs *FileStore) write(doc *SiteDocument) error {
	path, err := fs.sitePath(doc.Site.ID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode site %s: %w", doc.Site.ID, err)
	}
	tmp, err := os.CreateTemp(fs.basePath, ".site-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write site %s: %w", doc.Site.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename site file: %w", err)
	}
	return nil
}
