package storage

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// WithRetry wraps s so reads failing with a transient error are retried
// according to p. Writes and not-found results pass straight through.
func WithRetry(s ReadWriter, p retry.Policy) ReadWriter {
	if p.MaxRetries <= 0 {
		return s
	}
	return &retryingStore{ReadWriter: s, policy: p}
}

// Transient reports whether err is worth retrying: SQLite lock contention
// while another process writes the database.
func Transient(err error) bool {
	if err == nil || IsNotFound(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

type retryingStore struct {
	ReadWriter
	policy retry.Policy
}

func retried[T any](ctx context.Context, p retry.Policy, fn func() (T, error)) (T, error) {
	var out T
	err := retry.Do(ctx, p, Transient, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (r *retryingStore) Site(ctx context.Context, siteID string) (*models.Site, error) {
	return retried(ctx, r.policy, func() (*models.Site, error) { return r.ReadWriter.Site(ctx, siteID) })
}

func (r *retryingStore) Items(ctx context.Context, siteID string) ([]*models.Item, error) {
	return retried(ctx, r.policy, func() ([]*models.Item, error) { return r.ReadWriter.Items(ctx, siteID) })
}

func (r *retryingStore) Item(ctx context.Context, siteID, itemID string) (*models.Item, error) {
	return retried(ctx, r.policy, func() (*models.Item, error) { return r.ReadWriter.Item(ctx, siteID, itemID) })
}

func (r *retryingStore) ItemsByID(ctx context.Context, siteID string, ids []string) (map[string]*models.Item, error) {
	return retried(ctx, r.policy, func() (map[string]*models.Item, error) {
		return r.ReadWriter.ItemsByID(ctx, siteID, ids)
	})
}
