package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"econavix/internal/models"
)

type geocodeCacheRepository struct {
	store *Store
}

// Get returns nil, nil for a missing or expired entry
func (r *geocodeCacheRepository) Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT query_key, lat, lng, formatted, created_at_ms FROM geocode_cache WHERE query_key = ?`

	var entry models.GeocodeCacheEntry
	var createdMs int64
	err := r.store.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Key, &entry.Coords.Lat, &entry.Coords.Lng, &entry.Formatted, &createdMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get geocode cache entry: %w", err)
	}
	entry.CreatedAt = fromMillis(createdMs)

	if ttl := r.store.geocodeTTL; ttl > 0 && r.store.now().Sub(entry.CreatedAt) > ttl {
		return nil, nil
	}
	return &entry, nil
}

func (r *geocodeCacheRepository) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := entry.CreatedAt
	if created.IsZero() {
		created = r.store.now()
	}

	query := `INSERT OR REPLACE INTO geocode_cache (query_key, lat, lng, formatted, created_at_ms)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := r.store.db.ExecContext(ctx, query,
		entry.Key, entry.Coords.Lat, entry.Coords.Lng, entry.Formatted, toMillis(created),
	)
	if err != nil {
		return fmt.Errorf("failed to set geocode cache entry: %w", err)
	}
	return nil
}

func (r *geocodeCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM geocode_cache`); err != nil {
		return fmt.Errorf("failed to clear geocode cache: %w", err)
	}
	return nil
}
