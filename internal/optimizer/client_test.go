package optimizer

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

var (
	washington = models.Coordinates{Lat: 38.8977, Lng: -77.0365}
	newYork    = models.Coordinates{Lat: 40.7484, Lng: -73.9857}
)

func newTestOptimizer(url string) *httpOptimizer {
	return &httpOptimizer{
		url:        url,
		vehicle:    models.DefaultVehicle,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     zap.NewNop(),
	}
}

func TestRecommendSendsBackendContract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, []interface{}{38.8977, -77.0365}, body["origin_coords"])
		assert.Equal(t, []interface{}{40.7484, -73.9857}, body["destination_coords"])
		assert.Equal(t, map[string]interface{}{
			"type":       "gasoline_vehicle",
			"model":      "toyota_camry",
			"efficiency": 15.0,
			"fuel_type":  "gasoline",
		}, body["vehicle"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"route": [[38.8977, -77.0365], [39.5, -76.5], [40.7484, -73.9857]]}`))
	}))
	defer server.Close()

	result, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)
	require.NoError(t, err)
	assert.Len(t, result.Route, 3)
	assert.Equal(t, washington, result.Start())
	assert.Equal(t, newYork, result.End())
	assert.Nil(t, result.Comparison)
	assert.Empty(t, result.RecommendationSource)
}

func TestRecommendParsesFullResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"route": [[38.8977, -77.0365], [40.7484, -73.9857]],
			"comparison": {
				"original":  {"distance_km": 362.1, "duration_minutes": 230.5, "carbon_emissions_kg": 83.6},
				"optimized": {"distance_km": 362.1, "duration_minutes": 218.9, "carbon_emissions_kg": 75.3}
			},
			"recommendation": "1. Keep a steady speed. 2. Avoid idling.",
			"directions": ["Head north on 16th St NW", "Merge onto I-95 N"]
		}`))
	}))
	defer server.Close()

	result, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)
	require.NoError(t, err)

	require.NotNil(t, result.Comparison)
	require.NotNil(t, result.Comparison.Original)
	require.NotNil(t, result.Comparison.Optimized)
	assert.Equal(t, 230.5, result.Comparison.Original.DurationMinutes)
	assert.Equal(t, 75.3, result.Comparison.Optimized.CarbonEmissionsKg)
	assert.Equal(t, "1. Keep a steady speed. 2. Avoid idling.", result.Recommendation)
	assert.Equal(t, models.RecommendationFromBackend, result.RecommendationSource)
	assert.Equal(t, []string{"Head north on 16th St NW", "Merge onto I-95 N"}, result.Directions)
}

func TestRecommendStructuredBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"no route found"}`))
	}))
	defer server.Close()

	result, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)
	require.Error(t, err)
	assert.Nil(t, result)

	var optErr *ErrOptimizerFailed
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, http.StatusInternalServerError, optErr.StatusCode)
	assert.Equal(t, "no route found", optErr.Message)
	assert.Contains(t, optErr.Reason, "HTTP 500")
	assert.Equal(t, "route optimizer failed: no route found", err.Error())
}

func TestRecommendUnstructuredBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	_, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)

	var optErr *ErrOptimizerFailed
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, http.StatusBadGateway, optErr.StatusCode)
	assert.Empty(t, optErr.Message)
	assert.Contains(t, optErr.Reason, "HTTP 502")
}

func TestRecommendRouteTooShort(t *testing.T) {
	for _, body := range []string{`{"route": []}`, `{"route": [[38.8977, -77.0365]]}`, `{}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		_, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrRouteTooShort), body)

		server.Close()
	}
}

func TestRecommendMalformedRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"route": [[38.8977, -77.0365, 12], [40.7484, -73.9857]]}`))
	}))
	defer server.Close()

	_, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)

	var optErr *ErrOptimizerFailed
	require.True(t, errors.As(err, &optErr))
	assert.Contains(t, optErr.Reason, "route point 0")
}

func TestRecommendInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestOptimizer(server.URL).Recommend(context.Background(), washington, newYork)

	var optErr *ErrOptimizerFailed
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, http.StatusOK, optErr.StatusCode)
}

func TestRecommendBackendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestOptimizer(url).Recommend(context.Background(), washington, newYork)

	var optErr *ErrOptimizerFailed
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, 0, optErr.StatusCode)
	assert.NotNil(t, optErr.Err)
}

func TestNewHTTPOptimizerDefaults(t *testing.T) {
	c, ok := NewHTTPOptimizer(Options{}, nil).(*httpOptimizer)
	require.True(t, ok)
	assert.Equal(t, DefaultURL, c.url)
	assert.Equal(t, models.DefaultVehicle, c.vehicle)
	assert.Equal(t, 60*time.Second, c.httpClient.Timeout)
}
