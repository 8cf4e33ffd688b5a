package database

import (
	"context"

	"econavix/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Settings() SettingsRepository
	Plans() PlanRepository
	GeocodeCache() GeocodeCacheRepository
}

// SettingsRepository handles settings persistence
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) error
	// Modify applies fn to the stored settings and saves the result atomically
	Modify(ctx context.Context, fn func(*models.Settings)) (*models.Settings, error)
}

// PlanRepository handles plan history persistence
type PlanRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.PlanRecord, int, error)
	GetByID(ctx context.Context, id string) (*models.PlanRecord, error)
	Create(ctx context.Context, p *models.PlanRecord) (*models.PlanRecord, error)
	Clear(ctx context.Context) error
}

// GeocodeCacheRepository stores geocoding answers. Get returns nil, nil on a miss.
type GeocodeCacheRepository interface {
	Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error)
	Set(ctx context.Context, entry *models.GeocodeCacheEntry) error
	Clear(ctx context.Context) error
}
