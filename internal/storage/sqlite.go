package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// SQLiteStore implements ReadWriter using SQLite. Records are stored as JSON
// documents; items keep their insertion position so Items returns them in
// storage order.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) a SQLite-backed store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS items (
		site_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		doc TEXT NOT NULL,
		PRIMARY KEY (site_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_items_position ON items(site_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Site(ctx context.Context, siteID string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM sites WHERE id = ?", siteID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteNotFound(siteID)
	}
	if err != nil {
		return nil, fmt.Errorf("query site: %w", err)
	}

	var site models.Site
	if err := json.Unmarshal([]byte(doc), &site); err != nil {
		return nil, fmt.Errorf("decode site %s: %w", siteID, err)
	}
	return &site, nil
}

func (s *SQLiteStore) Items(ctx context.Context, siteID string) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM items WHERE site_id = ? ORDER BY position",
		siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (s *SQLiteStore) Item(ctx context.Context, siteID, itemID string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM items WHERE site_id = ? AND id = ?",
		siteID, itemID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, itemNotFound(itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return decodeItem(doc)
}

// ItemsByID fetches all requested ids with a single query.
func (s *SQLiteStore) ItemsByID(ctx context.Context, siteID string, ids []string) (map[string]*models.Item, error) {
	out := make(map[string]*models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, 0, len(ids)+1)
	args = append(args, siteID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	// #nosec G202 -- only placeholders are concatenated
	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM items WHERE site_id = ? AND id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (s *SQLiteStore) PutSite(ctx context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("marshal site: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sites (id, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		site.ID, string(doc), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	return nil
}

// PutItem inserts or replaces an item. A replaced item keeps its position.
func (s *SQLiteStore) PutItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (site_id, id, position, doc)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM items WHERE site_id = ?), ?)
		 ON CONFLICT(site_id, id) DO UPDATE SET doc = excluded.doc`,
		item.SiteID, item.ID, item.SiteID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func decodeItem(doc string) (*models.Item, error) {
	var it models.Item
	if err := json.Unmarshal([]byte(doc), &it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &it, nil
}
