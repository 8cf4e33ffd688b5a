package testutil

import (
	"context"
	"strings"
	"sync"

	"econavix/internal/geocoding"
	"econavix/internal/models"
)

// Well-known fixtures
var (
	WhiteHouse = models.Coordinates{Lat: 38.8977, Lng: -77.0365}
	NewYork    = models.Coordinates{Lat: 40.7128, Lng: -74.0060}
)

// MockGeocoder is a mock address resolver and geocoding provider for testing.
// Unknown addresses are reported as not found.
type MockGeocoder struct {
	mu        sync.Mutex
	Addresses map[string]models.Coordinates
	Errors    map[string]error
	Reverses  map[models.Coordinates]string
	Calls     []string
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		Addresses: map[string]models.Coordinates{
			"1600 Pennsylvania Ave, Washington DC": WhiteHouse,
			"New York, NY 10001":                   NewYork,
		},
		Errors:   make(map[string]error),
		Reverses: make(map[models.Coordinates]string),
	}
}

// SetAddress registers coordinates for an address
func (m *MockGeocoder) SetAddress(address string, coords models.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Addresses[address] = coords
}

// SetError makes lookups of address fail with err
func (m *MockGeocoder) SetError(address string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[address] = err
}

// Geocode resolves an address from the fixture table
func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, address)

	if err, ok := m.Errors[address]; ok {
		return nil, err
	}
	coords, ok := m.Addresses[address]
	if !ok {
		return nil, &geocoding.ErrGeocodingFailed{Query: address, Reason: "no results found", NotFound: true}
	}
	return &geocoding.GeocodingResult{Coords: coords, DisplayName: address}, nil
}

// Reverse answers from the reverse table, reporting not found otherwise
func (m *MockGeocoder) Reverse(ctx context.Context, coords models.Coordinates) (*geocoding.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "reverse:"+coordsKey(coords))

	if name, ok := m.Reverses[coords]; ok {
		return &geocoding.GeocodingResult{Coords: coords, DisplayName: name}, nil
	}
	return nil, &geocoding.ErrGeocodingFailed{Query: coordsKey(coords), Reason: "no results found", NotFound: true}
}

// ReverseGeocode mirrors geocoding.Resolver's sentinel contract
func (m *MockGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	coords := models.Coordinates{Lat: lat, Lng: lng}
	if !coords.Valid() {
		return geocoding.InvalidLocation
	}
	res, err := m.Reverse(ctx, coords)
	if err != nil {
		return geocoding.UnknownLocation
	}
	return res.DisplayName
}

// CallCount returns the number of recorded calls
func (m *MockGeocoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ForwardCalls returns the addresses passed to Geocode
func (m *MockGeocoder) ForwardCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.Calls {
		if !strings.HasPrefix(c, "reverse:") {
			out = append(out, c)
		}
	}
	return out
}

func coordsKey(c models.Coordinates) string {
	return geocodingKey(c.Lat, c.Lng)
}
