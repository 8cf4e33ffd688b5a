package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"econavix/internal/database"
	"econavix/internal/logging"
	"econavix/internal/models"
)

// Resolver is the address resolver used by the planner and the HTTP layer.
// It fronts a Provider with an optional cache and turns reverse geocoding
// failures into placeholder strings.
type Resolver struct {
	provider Provider
	cache    database.GeocodeCacheRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(provider Provider, cache database.GeocodeCacheRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
		logger:   logging.OrNop(logger).Named("geocoding"),
		now:      time.Now,
	}
}

// Geocode resolves a free-text address. A provider answer with no results is
// reported as an error matching ErrAddressNotFound.
func (r *Resolver) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	key := forwardKey(address)
	if hit := r.cached(ctx, key); hit != nil {
		return hit, nil
	}

	result, err := r.provider.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, result)
	return result, nil
}

// ReverseGeocode returns a display address for a coordinate. It never fails:
// invalid input, provider errors and empty answers come back as
// InvalidLocation, ErrorLocation and UnknownLocation.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	coords := models.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() {
		return InvalidLocation
	}

	key := reverseKey(coords)
	if hit := r.cached(ctx, key); hit != nil {
		return hit.DisplayName
	}

	result, err := r.provider.Reverse(ctx, coords)
	if err != nil {
		var gerr *ErrGeocodingFailed
		switch {
		case errors.Is(err, ErrAddressNotFound):
			return UnknownLocation
		case errors.As(err, &gerr):
			r.logger.Warn("reverse geocoding failed", zap.String("query", gerr.Query), zap.String("reason", gerr.Reason))
			return ErrorLocation
		default:
			r.logger.Warn("reverse geocoding aborted", zap.Error(err))
			return UnknownLocation
		}
	}
	if result.DisplayName == "" {
		return UnknownLocation
	}

	r.store(ctx, key, result)
	return result.DisplayName
}

func (r *Resolver) cached(ctx context.Context, key string) *GeocodingResult {
	if r.cache == nil {
		return nil
	}
	entry, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if entry == nil {
		return nil
	}
	r.logger.Debug("geocode cache hit", zap.String("key", key))
	return &GeocodingResult{Coords: entry.Coords, DisplayName: entry.Formatted}
}

func (r *Resolver) store(ctx context.Context, key string, result *GeocodingResult) {
	if r.cache == nil {
		return
	}
	err := r.cache.Set(ctx, &models.GeocodeCacheEntry{
		Key:       key,
		Coords:    result.Coords,
		Formatted: result.DisplayName,
		CreatedAt: r.now(),
	})
	if err != nil {
		r.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func forwardKey(address string) string {
	return "fwd:" + strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func reverseKey(c models.Coordinates) string {
	return fmt.Sprintf("rev:%.5f,%.5f", models.RoundCoordinate(c.Lat), models.RoundCoordinate(c.Lng))
}
