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

func newTestOpenCage(baseURL string) *openCageGeocoder {
	return &openCageGeocoder{
		baseURL: baseURL,
		apiKey:  "test-key",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(1 * time.Millisecond),
		logger:      zap.NewNop(),
	}
}

func writeOpenCage(w http.ResponseWriter, results ...map[string]interface{}) {
	if results == nil {
		results = []map[string]interface{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
		"status":  map[string]interface{}{"code": 200, "message": "OK"},
	})
}

func TestOpenCageGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/v1/json", r.URL.Path)
		assert.Equal(t, "1600 Pennsylvania Ave NW, Washington, DC 20500", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		writeOpenCage(w, map[string]interface{}{
			"formatted": "White House, 1600 Pennsylvania Avenue NW, Washington, DC 20500, United States of America",
			"geometry":  map[string]interface{}{"lat": 38.8976633, "lng": -77.0365739},
		})
	}))
	defer server.Close()

	geocoder := newTestOpenCage(server.URL)
	result, err := geocoder.Geocode(context.Background(), "1600 Pennsylvania Ave NW, Washington, DC 20500")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 38.8976633, result.Coords.Lat)
	assert.Equal(t, -77.0365739, result.Coords.Lng)
	assert.Contains(t, result.DisplayName, "White House")
}

func TestOpenCageGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOpenCage(w)
	}))
	defer server.Close()

	geocoder := newTestOpenCage(server.URL)
	result, err := geocoder.Geocode(context.Background(), "Nowhere Lane 0")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrAddressNotFound))

	var geocodingErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geocodingErr))
	assert.Contains(t, geocodingErr.Reason, "no results found")
}

func TestOpenCageGeocodeMissingResultsField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":{"code":200,"message":"OK"}}`))
	}))
	defer server.Close()

	_, err := newTestOpenCage(server.URL).Geocode(context.Background(), "Somewhere 12")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressNotFound))
}

func TestOpenCageGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"status":{"code":402,"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	result, err := newTestOpenCage(server.URL).Geocode(context.Background(), "Test Address 1")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, errors.Is(err, ErrAddressNotFound))

	geocodingErr, ok := err.(*ErrGeocodingFailed)
	require.True(t, ok)
	assert.Contains(t, geocodingErr.Reason, "HTTP 402")
}

func TestOpenCageGeocodeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	_, err := newTestOpenCage(server.URL).Geocode(context.Background(), "Test Address 1")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAddressNotFound))
	_, ok := err.(*ErrGeocodingFailed)
	assert.True(t, ok)
}

func TestOpenCageReverseQueryFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "q=38.8977+-77.0365")
		assert.Equal(t, "38.8977 -77.0365", r.URL.Query().Get("q"))

		writeOpenCage(w, map[string]interface{}{
			"formatted": "1600 Pennsylvania Avenue NW, Washington, DC 20500",
			"geometry":  map[string]interface{}{"lat": 38.8977, "lng": -77.0365},
		})
	}))
	defer server.Close()

	result, err := newTestOpenCage(server.URL).Reverse(context.Background(), models.Coordinates{Lat: 38.8977, Lng: -77.0365})
	require.NoError(t, err)
	assert.Equal(t, "1600 Pennsylvania Avenue NW, Washington, DC 20500", result.DisplayName)
}

func TestOpenCageContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	geocoder := newTestOpenCage(server.URL)
	geocoder.rateLimiter = time.NewTicker(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := geocoder.Geocode(ctx, "Test Address 1")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestOpenCageRateLimiting(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeOpenCage(w, map[string]interface{}{
			"formatted": "Somewhere",
			"geometry":  map[string]interface{}{"lat": 1.0, "lng": 2.0},
		})
	}))
	defer server.Close()

	geocoder := newTestOpenCage(server.URL)
	geocoder.rateLimiter = time.NewTicker(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := geocoder.Geocode(context.Background(), "Main St 1")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, requests)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestOpenCageUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EcoNavix/1.0", r.Header.Get("User-Agent"))
		writeOpenCage(w)
	}))
	defer server.Close()

	newTestOpenCage(server.URL).Geocode(context.Background(), "Main St 1")
}

func TestNewOpenCageGeocoderDefaults(t *testing.T) {
	provider := NewOpenCageGeocoder(OpenCageOptions{APIKey: "k"}, nil)

	g, ok := provider.(*openCageGeocoder)
	require.True(t, ok)
	assert.Equal(t, DefaultOpenCageURL, g.baseURL)
	assert.Equal(t, 10*time.Second, g.httpClient.Timeout)
	assert.NotNil(t, g.logger)
}

func TestOpenCageGeocodeCancelledInFlight(t *testing.T) {
	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-received
		cancel()
	}()

	_, err := newTestOpenCage(server.URL).Geocode(ctx, "New York")

	var geocodingErr *ErrGeocodingFailed
	require.True(t, errors.As(err, &geocodingErr))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrAddressNotFound))
}
