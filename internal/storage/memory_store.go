package storage

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// MemoryStore is an in-memory implementation of ReadWriter for tests and
// for sites supplied programmatically.
type MemoryStore struct {
	mu    sync.RWMutex
	sites map[string]*models.Site
	items map[string][]*models.Item
	calls MemoryCalls
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Site      int
	Items     int
	Item      int
	ItemsByID int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sites: make(map[string]*models.Site),
		items: make(map[string][]*models.Item),
	}
}

// NewMemoryStoreFrom creates a store preloaded with documents.
func NewMemoryStoreFrom(docs ...SiteDocument) *MemoryStore {
	m := NewMemoryStore()
	for i := range docs {
		site := docs[i].Site
		m.sites[site.ID] = &site
		for _, it := range docs[i].Items {
			cp := *it
			cp.SiteID = site.ID
			m.items[site.ID] = append(m.items[site.ID], &cp)
		}
	}
	return m
}

func (m *MemoryStore) Site(_ context.Context, siteID string) (*models.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Site++

	site, ok := m.sites[siteID]
	if !ok {
		return nil, siteNotFound(siteID)
	}
	return site, nil
}

func (m *MemoryStore) Items(_ context.Context, siteID string) ([]*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Items++

	return append([]*models.Item(nil), m.items[siteID]...), nil
}

func (m *MemoryStore) Item(_ context.Context, siteID, itemID string) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Item++

	for _, it := range m.items[siteID] {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, itemNotFound(itemID)
}

func (m *MemoryStore) ItemsByID(_ context.Context, siteID string, ids []string) (map[string]*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.ItemsByID++

	return pick(m.items[siteID], ids), nil
}

func (m *MemoryStore) PutSite(_ context.Context, site *models.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *site
	m.sites[site.ID] = &cp
	return nil
}

// PutItem inserts or replaces an item, keeping the original position on replace.
func (m *MemoryStore) PutItem(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	list := m.items[item.SiteID]
	for i, it := range list {
		if it.ID == item.ID {
			list[i] = &cp
			return nil
		}
	}
	m.items[item.SiteID] = append(list, &cp)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Calls returns a snapshot of the call counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Reset clears all data and counters.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = make(map[string]*models.Site)
	m.items = make(map[string][]*models.Item)
	m.calls = MemoryCalls{}
}
