package geocoding

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econavix/internal/models"
)

type stubProvider struct {
	mu           sync.Mutex
	geocodeCalls int
	reverseCalls int
	geocode      func(address string) (*GeocodingResult, error)
	reverse      func(coords models.Coordinates) (*GeocodingResult, error)
}

func (s *stubProvider) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	s.mu.Lock()
	s.geocodeCalls++
	s.mu.Unlock()
	return s.geocode(address)
}

func (s *stubProvider) Reverse(ctx context.Context, coords models.Coordinates) (*GeocodingResult, error) {
	s.mu.Lock()
	s.reverseCalls++
	s.mu.Unlock()
	return s.reverse(coords)
}

type memoryCache struct {
	entries map[string]*models.GeocodeCacheEntry
	failGet bool
	failSet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*models.GeocodeCacheEntry)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error) {
	if c.failGet {
		return nil, errors.New("cache down")
	}
	return c.entries[key], nil
}

func (c *memoryCache) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	if c.failSet {
		return errors.New("cache down")
	}
	c.entries[entry.Key] = entry
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.entries = make(map[string]*models.GeocodeCacheEntry)
	return nil
}

func whiteHouse(string) (*GeocodingResult, error) {
	return &GeocodingResult{
		Coords:      models.Coordinates{Lat: 38.8977, Lng: -77.0365},
		DisplayName: "1600 Pennsylvania Avenue NW, Washington, DC 20500",
	}, nil
}

func TestResolverGeocodeUsesCache(t *testing.T) {
	provider := &stubProvider{geocode: whiteHouse}
	cache := newMemoryCache()
	resolver := NewResolver(provider, cache, nil)
	ctx := context.Background()

	first, err := resolver.Geocode(ctx, "1600 Pennsylvania Ave NW, Washington, DC")
	require.NoError(t, err)

	second, err := resolver.Geocode(ctx, "  1600 pennsylvania ave NW,   Washington, DC ")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.geocodeCalls)
	assert.Equal(t, first, second)
	assert.Contains(t, cache.entries, "fwd:1600 pennsylvania ave nw, washington, dc")
}

func TestResolverGeocodeNotFoundIsNotCached(t *testing.T) {
	provider := &stubProvider{geocode: func(address string) (*GeocodingResult, error) {
		return nil, notFound(address)
	}}
	cache := newMemoryCache()
	resolver := NewResolver(provider, cache, nil)

	_, err := resolver.Geocode(context.Background(), "Nowhere 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressNotFound))
	assert.Empty(t, cache.entries)
}

func TestResolverGeocodeIgnoresCacheFailures(t *testing.T) {
	provider := &stubProvider{geocode: whiteHouse}
	cache := newMemoryCache()
	cache.failGet = true
	cache.failSet = true
	resolver := NewResolver(provider, cache, nil)

	result, err := resolver.Geocode(context.Background(), "1600 Pennsylvania Ave NW, Washington, DC")
	require.NoError(t, err)
	assert.Equal(t, 38.8977, result.Coords.Lat)
}

func TestResolverGeocodeWithoutCache(t *testing.T) {
	provider := &stubProvider{geocode: whiteHouse}
	resolver := NewResolver(provider, nil, nil)

	_, err := resolver.Geocode(context.Background(), "1600 Pennsylvania Ave NW")
	require.NoError(t, err)
	_, err = resolver.Geocode(context.Background(), "1600 Pennsylvania Ave NW")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.geocodeCalls)
}

func TestResolverReverseGeocodeSentinels(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		reverse  func(models.Coordinates) (*GeocodingResult, error)
		want     string
		calls    int
	}{
		{
			name: "success",
			lat:  38.8977, lng: -77.0365,
			reverse: func(models.Coordinates) (*GeocodingResult, error) { return whiteHouse("") },
			want:    "1600 Pennsylvania Avenue NW, Washington, DC 20500",
			calls:   1,
		},
		{
			name: "nan latitude",
			lat:  math.NaN(), lng: -77.0365,
			want:  InvalidLocation,
			calls: 0,
		},
		{
			name: "out of range",
			lat:  123, lng: 0,
			want:  InvalidLocation,
			calls: 0,
		},
		{
			name: "provider http error",
			lat:  38.8977, lng: -77.0365,
			reverse: func(c models.Coordinates) (*GeocodingResult, error) {
				return nil, &ErrGeocodingFailed{Query: "q", Reason: "HTTP 500: boom"}
			},
			want:  ErrorLocation,
			calls: 1,
		},
		{
			name: "empty results",
			lat:  38.8977, lng: -77.0365,
			reverse: func(c models.Coordinates) (*GeocodingResult, error) {
				return nil, notFound("q")
			},
			want:  UnknownLocation,
			calls: 1,
		},
		{
			name: "unexpected error",
			lat:  38.8977, lng: -77.0365,
			reverse: func(c models.Coordinates) (*GeocodingResult, error) {
				return nil, context.DeadlineExceeded
			},
			want:  UnknownLocation,
			calls: 1,
		},
		{
			name: "blank formatted address",
			lat:  38.8977, lng: -77.0365,
			reverse: func(c models.Coordinates) (*GeocodingResult, error) {
				return &GeocodingResult{Coords: c}, nil
			},
			want:  UnknownLocation,
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{reverse: tt.reverse}
			resolver := NewResolver(provider, nil, nil)

			got := resolver.ReverseGeocode(context.Background(), tt.lat, tt.lng)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, provider.reverseCalls)
		})
	}
}

func TestResolverReverseGeocodeCachesByRoundedCoordinate(t *testing.T) {
	provider := &stubProvider{reverse: func(models.Coordinates) (*GeocodingResult, error) { return whiteHouse("") }}
	cache := newMemoryCache()
	resolver := NewResolver(provider, cache, nil)
	ctx := context.Background()

	resolver.ReverseGeocode(ctx, 38.897700001, -77.036500001)
	got := resolver.ReverseGeocode(ctx, 38.8977, -77.0365)

	assert.Equal(t, "1600 Pennsylvania Avenue NW, Washington, DC 20500", got)
	assert.Equal(t, 1, provider.reverseCalls)
	assert.Contains(t, cache.entries, "rev:38.89770,-77.03650")
}
