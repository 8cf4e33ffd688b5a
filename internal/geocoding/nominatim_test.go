package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"econavix/internal/models"
)

func newTestNominatim(baseURL string) *nominatimGeocoder {
	return &nominatimGeocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(1 * time.Millisecond),
		logger:      zap.NewNop(),
	}
}

func TestNominatimGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "New York", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "EcoNavix/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]nominatimPlace{
			{Lat: "40.7128", Lon: "-74.0060", DisplayName: "New York, NY, USA"},
		})
	}))
	defer server.Close()

	result, err := newTestNominatim(server.URL).Geocode(context.Background(), "New York")

	require.NoError(t, err)
	assert.Equal(t, 40.7128, result.Coords.Lat)
	assert.Equal(t, -74.0060, result.Coords.Lng)
	assert.Equal(t, "New York, NY, USA", result.DisplayName)
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	result, err := newTestNominatim(server.URL).Geocode(context.Background(), "Nonexistent Location")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrAddressNotFound))
}

func TestNominatimGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	result, err := newTestNominatim(server.URL).Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, errors.Is(err, ErrAddressNotFound))

	var geocodingErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geocodingErr))
	assert.Contains(t, geocodingErr.Reason, "HTTP 429")
}

func TestNominatimGeocodeInvalidLatLon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]nominatimPlace{
			{Lat: "invalid", Lon: "-74.0060", DisplayName: "Test"},
		})
	}))
	defer server.Close()

	_, err := newTestNominatim(server.URL).Geocode(context.Background(), "Test Address")

	var geocodingErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geocodingErr))
	assert.Equal(t, "invalid latitude", geocodingErr.Reason)
}

func TestNominatimReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "40.7128", r.URL.Query().Get("lat"))
		assert.Equal(t, "-74.006", r.URL.Query().Get("lon"))

		json.NewEncoder(w).Encode(nominatimPlace{
			Lat: "40.7127", Lon: "-74.0059", DisplayName: "City Hall, New York",
		})
	}))
	defer server.Close()

	result, err := newTestNominatim(server.URL).Reverse(context.Background(), models.Coordinates{Lat: 40.7128, Lng: -74.006})

	require.NoError(t, err)
	assert.Equal(t, "City Hall, New York", result.DisplayName)
}

func TestNominatimReverseNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	_, err := newTestNominatim(server.URL).Reverse(context.Background(), models.Coordinates{Lat: 0, Lng: -150})

	assert.True(t, errors.Is(err, ErrAddressNotFound))
}

func TestNominatimGeocodeContextCancellation(t *testing.T) {
	g := newTestNominatim("http://127.0.0.1:1")
	g.rateLimiter = time.NewTicker(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Geocode(ctx, "Test")
	assert.ErrorIs(t, err, context.Canceled)
}
