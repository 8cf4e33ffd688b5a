package present

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"econavix/internal/models"
)

// LineString converts a route into an orb line (lon/lat order)
func LineString(route []models.Coordinates) orb.LineString {
	ls := make(orb.LineString, 0, len(route))
	for _, c := range route {
		ls = append(ls, orb.Point{c.Lng, c.Lat})
	}
	return ls
}

// Bounds returns the bounding box of a route; ok is false when the route
// has fewer than two points
func Bounds(route []models.Coordinates) (bound orb.Bound, ok bool) {
	if len(route) < 2 {
		return orb.Bound{}, false
	}
	return LineString(route).Bound(), true
}

// RouteGeoJSON exports a route with its start and end markers
func RouteGeoJSON(result *models.RouteResult, origin, destination string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !result.Drawable() {
		return fc
	}

	line := geojson.NewFeature(LineString(result.Route))
	line.Properties["kind"] = "route"
	line.Properties["points"] = len(result.Route)
	if c := result.Comparison; c != nil && c.Optimized != nil {
		line.Properties["distance_km"] = c.Optimized.DistanceKm
		line.Properties["duration_minutes"] = c.Optimized.DurationMinutes
		line.Properties["carbon_emissions_kg"] = c.Optimized.CarbonEmissionsKg
	}
	line.Properties["emissions_saved_kg"] = EmissionsSaved(result.Comparison)
	fc.Append(line)

	start := result.Start()
	startFeature := geojson.NewFeature(orb.Point{start.Lng, start.Lat})
	startFeature.Properties["kind"] = "origin"
	startFeature.Properties["address"] = origin
	fc.Append(startFeature)

	end := result.End()
	endFeature := geojson.NewFeature(orb.Point{end.Lng, end.Lat})
	endFeature.Properties["kind"] = "destination"
	endFeature.Properties["address"] = destination
	fc.Append(endFeature)

	return fc
}
