package present

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econavix/internal/models"
)

func sampleResult() *models.RouteResult {
	return &models.RouteResult{
		Route: []models.Coordinates{
			{Lat: 38.8977, Lng: -77.0365},
			{Lat: 39.9526, Lng: -75.1652},
			{Lat: 40.7128, Lng: -74.0060},
		},
		Comparison: &models.Comparison{
			Original:  &models.RouteStats{DistanceKm: 370, DurationMinutes: 240, CarbonEmissionsKg: 80},
			Optimized: &models.RouteStats{DistanceKm: 360, DurationMinutes: 225, CarbonEmissionsKg: 70},
		},
		Recommendation:       "1. Take I-95 2. Avoid tolls",
		RecommendationSource: models.RecommendationFromBackend,
	}
}

func TestNewRouteView(t *testing.T) {
	view := NewRouteView(sampleResult(), true)

	assert.Equal(t, "10.00", view.EmissionsSaved)
	assert.Equal(t, 3, view.Points)
	assert.Equal(t, []string{"1. Take I-95", "2. Avoid tolls"}, view.RecommendationSteps)
	assert.Equal(t, models.RecommendationFromBackend, view.RecommendationSource)

	require.NotNil(t, view.Original)
	require.NotNil(t, view.Optimized)
	assert.Equal(t, "Original Route", view.Original.Label)
	assert.Equal(t, "229.91 miles", view.Original.Distance)
	assert.Equal(t, "4 hr 0 min", view.Original.Time)
	assert.Equal(t, "3 hr 45 min", view.Optimized.Time)
	assert.Equal(t, "70.00 kg CO₂", view.Optimized.Emissions)

	require.NotNil(t, view.Bounds)
	assert.Equal(t, 38.8977, view.Bounds.South)
	assert.Equal(t, 40.7128, view.Bounds.North)
	assert.Equal(t, -77.0365, view.Bounds.West)
	assert.Equal(t, -74.0060, view.Bounds.East)
}

func TestNewRouteView_Kilometers(t *testing.T) {
	view := NewRouteView(sampleResult(), false)
	assert.Equal(t, "360.00 km", view.Optimized.Distance)
}

func TestNewRouteView_Nil(t *testing.T) {
	view := NewRouteView(nil, true)
	assert.Equal(t, "0.00", view.EmissionsSaved)
	assert.Nil(t, view.Bounds)
	assert.Nil(t, view.Original)
}

func TestNewRouteView_MissingStats(t *testing.T) {
	result := sampleResult()
	result.Comparison.Original = nil

	view := NewRouteView(result, true)
	require.NotNil(t, view.Original)
	assert.Equal(t, "N/A", view.Original.Distance)
	assert.Equal(t, "N/A", view.Original.Time)
	assert.Equal(t, "0.00", view.EmissionsSaved)
}

func TestBounds(t *testing.T) {
	_, ok := Bounds(nil)
	assert.False(t, ok)

	_, ok = Bounds([]models.Coordinates{{Lat: 1, Lng: 2}})
	assert.False(t, ok, "single point has no bounds to fit")

	b, ok := Bounds([]models.Coordinates{{Lat: 1, Lng: 2}, {Lat: -3, Lng: 4}})
	require.True(t, ok)
	assert.Equal(t, orb.Point{2, -3}, b.Min)
	assert.Equal(t, orb.Point{4, 1}, b.Max)
}

func TestRouteGeoJSON(t *testing.T) {
	fc := RouteGeoJSON(sampleResult(), "1600 Pennsylvania Ave, Washington DC", "New York, NY 10001")
	require.Len(t, fc.Features, 3)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 3)
	assert.Equal(t, orb.Point{-77.0365, 38.8977}, line[0], "geojson uses lon/lat order")
	assert.Equal(t, "route", fc.Features[0].Properties["kind"])
	assert.Equal(t, 360.0, fc.Features[0].Properties["distance_km"])

	assert.Equal(t, orb.Point{-77.0365, 38.8977}, fc.Features[1].Geometry)
	assert.Equal(t, "origin", fc.Features[1].Properties["kind"])
	assert.Equal(t, orb.Point{-74.0060, 40.7128}, fc.Features[2].Geometry)
	assert.Equal(t, "New York, NY 10001", fc.Features[2].Properties["address"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
	assert.Contains(t, string(data), `"LineString"`)
}

func TestRouteGeoJSON_NotDrawable(t *testing.T) {
	result := &models.RouteResult{Route: []models.Coordinates{{Lat: 1, Lng: 1}}}
	fc := RouteGeoJSON(result, "a", "b")
	assert.Empty(t, fc.Features)

	fc = RouteGeoJSON(nil, "a", "b")
	assert.Empty(t, fc.Features)
}
