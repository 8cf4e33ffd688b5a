package models

import (
	"math"
	"time"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and inside the WGS84 range
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Pair returns the coordinate as [lat, lng], the order the optimizer backend expects
func (c Coordinates) Pair() [2]float64 {
	return [2]float64{c.Lat, c.Lng}
}

// RoundCoordinate rounds to 5 decimal places (~1m), the precision used for cache keys
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// VehicleProfile describes the vehicle sent with every route request
type VehicleProfile struct {
	Type       string  `json:"type"`
	Model      string  `json:"model"`
	Efficiency float64 `json:"efficiency"`
	FuelType   string  `json:"fuel_type"`
}

// DefaultVehicle is the profile used when none is configured
var DefaultVehicle = VehicleProfile{
	Type:       "gasoline_vehicle",
	Model:      "toyota_camry",
	Efficiency: 15.0,
	FuelType:   "gasoline",
}

// RouteStats holds the metrics the optimizer reports for one route variant
type RouteStats struct {
	DistanceKm        float64 `json:"distance_km"`
	DurationMinutes   float64 `json:"duration_minutes"`
	CarbonEmissionsKg float64 `json:"carbon_emissions_kg"`
}

// Comparison pairs the unoptimized and optimized routes
type Comparison struct {
	Original  *RouteStats `json:"original,omitempty"`
	Optimized *RouteStats `json:"optimized,omitempty"`
}

// Recommendation sources
const (
	RecommendationFromBackend = "backend"
	RecommendationFromAdvisor = "advisor"
)

// RouteResult is the outcome of one successful route request
type RouteResult struct {
	Route                []Coordinates `json:"route"`
	Comparison           *Comparison   `json:"comparison,omitempty"`
	Recommendation       string        `json:"recommendation,omitempty"`
	RecommendationSource string        `json:"recommendation_source,omitempty"`
	Directions           []string      `json:"directions,omitempty"`
}

// Drawable reports whether the route has enough points for a line and bounds
func (r *RouteResult) Drawable() bool {
	return r != nil && len(r.Route) >= 2
}

// Start returns the first route point
func (r *RouteResult) Start() Coordinates {
	return r.Route[0]
}

// End returns the last route point
func (r *RouteResult) End() Coordinates {
	return r.Route[len(r.Route)-1]
}

// Theme is the persisted display preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Settings holds user preferences
type Settings struct {
	Theme    Theme `json:"theme"`
	UseMiles bool  `json:"use_miles"`
}

// DefaultSettings returns the preferences used before anything is saved
func DefaultSettings() Settings {
	return Settings{Theme: ThemeLight, UseMiles: true}
}

// Plan statuses
const (
	PlanStatusDone   = "done"
	PlanStatusFailed = "failed"
)

// PlanRecord is a history entry for one finished plan request
type PlanRecord struct {
	ID               string    `json:"id"`
	Generation       uint64    `json:"generation"`
	Origin           string    `json:"origin"`
	Destination      string    `json:"destination"`
	Status           string    `json:"status"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	FailureReason    string    `json:"failure_reason,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	DistanceKm       float64   `json:"distance_km"`
	EmissionsSavedKg float64   `json:"emissions_saved_kg"`
	RoutePoints      int       `json:"route_points"`
	CreatedAt        time.Time `json:"created_at"`
}

// GeocodeCacheEntry is a cached forward or reverse geocoding answer
type GeocodeCacheEntry struct {
	Key       string      `json:"key"`
	Coords    Coordinates `json:"coords"`
	Formatted string      `json:"formatted"`
	CreatedAt time.Time   `json:"created_at"`
}
